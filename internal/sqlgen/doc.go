// Package sqlgen lowers query trees into parameterized SQL over the triple
// table.
//
// Every node of the tree becomes a graph pattern: a SELECT statement plus the
// ordered set of column aliases it exposes. Parents wrap their children as
// subqueries and join them on shared aliases:
//
//	Triple    SELECT subject AS v0, ... FROM data WHERE ...
//	And       (lhs) AS r1 INNER JOIN (rhs) AS r2 ON <shared aliases>
//	Optional  (lhs) AS r1 LEFT OUTER JOIN (rhs) AS r2 ON <shared aliases>
//	Minus     (lhs) r1 WHERE NOT EXISTS (... (rhs) r2 WHERE <shared aliases>)
//	Union     two outer joins ON (1=0) combined with UNION
//	Filter    SELECT * FROM (lhs) r WHERE <predicates>
//	Select    SELECT DISTINCT <projection> FROM (group) r ORDER BY ...
//
// ALIASES:
//
// One counter per Translate call numbers every alias, whatever its role:
// v (variables), lit (literal terms), qv (bound parameters) and o (sort
// keys). A variable keeps its alias for the whole call, which is what makes
// two occurrences of ?x join. Literal values never appear in the SQL text;
// they are returned in Translation.Literals keyed by parameter name and
// referenced as :qvN.
//
// All engine-specific expressions come from a dialect.Dialect.
package sqlgen
