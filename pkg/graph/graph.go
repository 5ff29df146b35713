/*
Licensed to the Apache Software Foundation (ASF) under one or more
contributor license agreements.  See the NOTICE file distributed with
this work for additional information regarding copyright ownership.
The ASF licenses this file to You under the Apache License, Version 2.0
(the "License"); you may not use this file except in compliance with
the License.  You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package graph provides the directed acyclic graph used to order component
// builds so that every component is built after its dependencies.
package graph

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
)

// DAG stores a directed acyclic graph of named nodes. Nodes can only be added
// with already-present parents, which is what keeps the graph acyclic.
type DAG struct {
	nodes      []string
	nodeSet    *strset.Set
	edges      map[string][]string
	parentless []string
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{
		nodeSet: strset.New(),
		edges:   make(map[string][]string),
	}
}

// Nodes returns the nodes in insertion order.
func (d *DAG) Nodes() []string {
	nodes := make([]string, len(d.nodes))
	copy(nodes, d.nodes)

	return nodes
}

// AddNode adds a node with the given parents. All parents must already be
// nodes of the DAG.
func (d *DAG) AddNode(name string, parents []string) error {
	if d.nodeSet.Has(name) {
		return errors.Errorf("the node %s is already in the DAG", name)
	}

	for _, parent := range parents {
		if !d.nodeSet.Has(parent) {
			return errors.Errorf("the parent node %s is not in the DAG", parent)
		}
	}

	for _, parent := range parents {
		d.edges[parent] = append(d.edges[parent], name)
	}

	if len(parents) == 0 {
		d.parentless = append(d.parentless, name)
	}

	d.nodes = append(d.nodes, name)
	d.nodeSet.Add(name)

	return nil
}

// ContainsNode reports whether the DAG contains the given node.
func (d *DAG) ContainsNode(node string) bool {
	return d.nodeSet.Has(node)
}

// ContainsEdge reports whether an edge exists from parent to child.
func (d *DAG) ContainsEdge(parent string, child string) bool {
	for _, c := range d.edges[parent] {
		if c == child {
			return true
		}
	}

	return false
}

// Children returns the nodes the given node has an edge to.
func (d *DAG) Children(node string) []string {
	children := make([]string, len(d.edges[node]))
	copy(children, d.edges[node])

	return children
}

// ParentlessNodes returns the nodes that are not the end node of any edge.
func (d *DAG) ParentlessNodes() []string {
	parentless := make([]string, len(d.parentless))
	copy(parentless, d.parentless)

	return parentless
}

// TopologicallySortedNodes returns the nodes so that for every edge A -> B,
// A comes before B. The order is deterministic for a given insertion order.
func (d *DAG) TopologicallySortedNodes() []string {
	visited := strset.New()
	order := make([]string, 0, len(d.nodes))

	for _, node := range d.parentless {
		order = d.visit(node, visited, order)
	}

	return order
}

// visit appends the depth-first postorder of node in front of the order
// collected so far, which yields a topological order when started from the
// parentless nodes.
func (d *DAG) visit(node string, visited *strset.Set, order []string) []string {
	if visited.Has(node) {
		return order
	}
	visited.Add(node)

	for _, child := range d.edges[node] {
		order = d.visit(child, visited, order)
	}

	return append([]string{node}, order...)
}

// FromDependencies builds a DAG from a dependency map, where each key depends
// on the listed values. The dependency direction becomes a parent -> child
// edge from the dependency to the dependent. Cyclic dependencies are an
// error.
func FromDependencies(dependencies map[string][]string) (*DAG, error) {
	dag := New()

	// Iterated in sorted order so the resulting build order is stable.
	nodes := make([]string, 0, len(dependencies))
	for node := range dependencies {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if err := addNodeRecursively(dependencies, node, dag, nil); err != nil {
			return nil, err
		}
	}

	return dag, nil
}

func addNodeRecursively(dependencies map[string][]string, node string, dag *DAG, pending []string) error {
	if dag.ContainsNode(node) {
		return nil
	}

	for _, p := range pending {
		if p == node {
			return errors.Errorf("cycle detected in the dependency graph containing: %v", append(pending, node))
		}
	}

	deps, ok := dependencies[node]
	if !ok {
		return errors.Errorf("the node %s is referenced as a dependency but not declared", node)
	}

	pending = append(pending, node)
	for _, dependency := range deps {
		if err := addNodeRecursively(dependencies, dependency, dag, pending); err != nil {
			return err
		}
	}

	return dag.AddNode(node, deps)
}
