// Package extract implements C3, the structural extractor: it parses the
// combined LaTeX source of a paper into a base document artifact graph —
// theorem-like environments, their proofs, and their explicit reference and
// citation edges — without consulting the generative oracle.
package extract
