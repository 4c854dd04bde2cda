package repository

import (
	"fmt"
	"strings"
)

const (
	createVertexCypherTemplate = `
CREATE (n:%[1]s)
SET n = $props
RETURN %[2]s(n) AS id
`

	findByIDCypherTemplate = `
MATCH (n)
WHERE %[1]s
RETURN %[2]s(n) AS id
LIMIT 1
`

	findByPropertyCypherTemplate = `
MATCH (n%[1]s)
WHERE n.%[2]s = $key
RETURN %[3]s(n) AS id
LIMIT 1
`

	createEdgeCypherTemplate = `
MATCH (a), (b)
WHERE %[1]s AND %[2]s
CREATE (a)-[r:%[3]s]->(b)
RETURN %[4]s(r) AS id
`
)

func (s *Session) createVertexCypher(label string) string {
	return fmt.Sprintf(createVertexCypherTemplate, quoteIdentifier(label), s.idFunc)
}

func (s *Session) findByIDCypher() string {
	return fmt.Sprintf(findByIDCypherTemplate, s.idMatch("n", "key"), s.idFunc)
}

func (s *Session) findByPropertyCypher() string {
	labelClause := ""
	if s.resolution.Label != "" {
		labelClause = ":" + quoteIdentifier(s.resolution.Label)
	}
	return fmt.Sprintf(findByPropertyCypherTemplate, labelClause, quoteIdentifier(s.resolution.Property), s.idFunc)
}

func (s *Session) createEdgeCypher(relationship string) string {
	return fmt.Sprintf(createEdgeCypherTemplate,
		s.idMatch("a", "from"), s.idMatch("b", "to"), quoteIdentifier(relationship), s.idFunc)
}

// idMatch compares an element's identity with a parameter. Under id() the
// parameter is a list of candidates (see idParam), so the comparison is IN.
func (s *Session) idMatch(variable, param string) string {
	if s.idFunc == IDFunctionID {
		return fmt.Sprintf("%s(%s) IN $%s", s.idFunc, variable, param)
	}
	return fmt.Sprintf("%s(%s) = $%s", s.idFunc, variable, param)
}

// quoteIdentifier backtick-quotes a label, relationship type or property
// name. Cypher cannot parameterise these, so they are escaped instead.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
