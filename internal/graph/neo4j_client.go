package graph

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient establishes a Bolt connection using the official Neo4j driver.
// Neptune's openCypher endpoint is wire-compatible with the Bolt protocol,
// allowing the same driver to be reused for both local Neo4j and AWS Neptune.
//
// Endpoints are tried in order; the first one that passes a connectivity
// check is used for the life of the client.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	uris := opts.URIs()
	if len(uris) == 0 {
		return nil, ErrMissingEndpoint
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	var failures []error
	for _, uri := range uris {
		driver, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
			if opts.MaxConnections > 0 {
				c.MaxConnectionPoolSize = opts.MaxConnections
			}
			if opts.ConnectTimeout > 0 {
				c.SocketConnectTimeout = opts.ConnectTimeout
				c.ConnectionAcquisitionTimeout = opts.ConnectTimeout
			}
			if tlsConfig := opts.TLSConfig(); tlsConfig != nil {
				c.TlsConfig = tlsConfig
			}
		})
		if err != nil {
			// Malformed URI or driver configuration; no server was contacted.
			failures = append(failures, Rejection("create neo4j driver for "+uri, err))
			continue
		}

		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			failures = append(failures, classify("verify graph connectivity for "+uri, err))
			continue
		}

		return &neo4jClient{
			driver:   driver,
			database: opts.Database,
			uri:      uri,
		}, nil
	}

	return nil, connectFailure(failures)
}

// connectFailure summarises per-endpoint failures. The open is worth retrying
// only if some endpoint failed transiently; when every endpoint refused (bad
// credentials, malformed URI) it is a rejection.
func connectFailure(failures []error) error {
	cause := errors.Join(failures...)
	for _, err := range failures {
		if IsConnection(err) {
			return ConnectionFailure("connect", cause)
		}
	}
	return Rejection("connect", cause)
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	uri      string
}

// Each call opens its own short-lived driver session, so the client can be
// shared by concurrent workers; the driver pools the underlying connections.
func (c *neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, classify("write", err)
	}

	return consumeResult(ctx, "write", res)
}

func (c *neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, classify("read", err)
	}

	return consumeResult(ctx, "read", res)
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return classify("verify connectivity", err)
	}
	return nil
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *neo4jClient) String() string {
	return c.uri
}

func consumeResult(ctx context.Context, op string, res neo4j.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return Result{}, classify(op, err)
	}
	return Result{Records: records}, nil
}

// classify maps driver errors onto ErrConnection or ErrRejected. Server
// errors outside the TransientError class are data problems and are not
// retried; anything the driver cannot attribute to the server is treated the
// same way unless it is recognisably a transport failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var graphErr *Error
	if errors.As(err, &graphErr) {
		return err
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if neoErr.Classification() == "TransientError" {
			return ConnectionFailure(op, err)
		}
		return Rejection(op, err)
	}
	if neo4j.IsConnectivityError(err) || neo4j.IsRetryable(err) || classifyTransport(err) {
		return ConnectionFailure(op, err)
	}
	return Rejection(op, err)
}
