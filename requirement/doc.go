// Package requirement parses and formats dependency requirement strings.
//
// The accepted grammar is the subset of PEP 508 that project manifests use in
// practice: a name, optional [extras], either version specifier clauses or a
// direct "@ url" reference, and an optional "; marker" suffix. Markers are
// re-rendered in canonical form with double-quoted values and single spaces
// around operators.
//
// Example:
//
//	req, err := requirement.Parse("numpy>=1.20")
//	fmt.Println(req.Name, req.Specifiers[0].Version) // numpy 1.20
package requirement
