package sim

import "golang.org/x/exp/slices"

// Directory is the registry of resource entities (datacenters) known to a
// simulation, plus id-to-name resolution for every registered entity.
type Directory struct {
	resources []int
	names     map[int]string
}

func newDirectory() *Directory {
	return &Directory{names: make(map[int]string)}
}

// RegisterResource adds a datacenter id. Registering the same id twice is a no-op.
func (d *Directory) RegisterResource(id int) {
	if slices.Contains(d.resources, id) {
		return
	}
	d.resources = append(d.resources, id)
}

// IsResource reports whether id was registered as a resource.
func (d *Directory) IsResource(id int) bool {
	return slices.Contains(d.resources, id)
}

// DatacenterIDs returns the registered resource ids in registration order.
func (d *Directory) DatacenterIDs() []int {
	return slices.Clone(d.resources)
}

// EntityName resolves an entity id to its name; empty if unknown.
func (d *Directory) EntityName(id int) string {
	return d.names[id]
}

func (d *Directory) addName(id int, name string) {
	d.names[id] = name
}
