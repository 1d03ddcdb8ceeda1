/*
Package actions composes the operations offered on a policy tree node.

The set is derived on every query from the node's kind metadata: the kind's
preferred action comes first, followed by the standard structural actions,
then filters drop whatever does not apply to the node (identity constraints
on composites, editing actions inside included fragments). Nothing is cached.
*/
package actions
