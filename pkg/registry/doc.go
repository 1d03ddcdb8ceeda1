// Package registry holds the per-kind metadata descriptors of assertions.
package registry
