// Package geometry turns a bounding container and a list of movable bodies
// into a static set of inequality constraints c(x) >= 0 over the flattened
// body centers, together with the pairwise-distance objective.
//
// Containment keeps each body's full extent inside the container. Non-overlap
// is expressed per pair: spheres keep their center distance at least the sum
// of radii, while pairs involving a box are separated per axis, either on
// every axis (SeparationPerAxis) or on at least one (SeparationExactSAT).
package geometry
