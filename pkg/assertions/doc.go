// Package assertions contains a representative set of policy assertions,
// their property editors, and a minimal policy tree to host them.
package assertions
