package beacon

import (
	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/params"
)

// mirror keeps the parameters in RAM. Values are written back by flush,
// only those which differ from what was last persisted.
type mirror struct {
	store  *params.Store
	values map[params.FieldID]uint32
	saved  map[params.FieldID]uint32
}

func newMirror(store *params.Store) *mirror {
	return &mirror{
		store:  store,
		values: make(map[params.FieldID]uint32),
		saved:  make(map[params.FieldID]uint32),
	}
}

// load reads every field except skip. Fields failing the integrity check
// are rewritten with their defaults and returned.
func (m *mirror) load(skip ...params.FieldID) (repaired []params.FieldID, err error) {
	layout := m.store.Layout()
	for n := range layout.Fields {
		f := &layout.Fields[n]
		if containsField(skip, f.ID) {
			continue
		}
		value, err := m.store.Get(f.ID)
		if err != nil {
			if !params.IsIntegrity(err) {
				return repaired, err
			}
			glog.Warningf("parameter %s corrupted, restoring default %d", f.Name, f.Default)
			if err = m.store.Set(f.ID, f.Default); err != nil {
				return repaired, err
			}
			value = f.Default
			repaired = append(repaired, f.ID)
		}
		m.values[f.ID], m.saved[f.ID] = value, value
	}
	return repaired, nil
}

func (m *mirror) get(id params.FieldID) uint32 {
	return m.values[id]
}

func (m *mirror) getBool(id params.FieldID) bool {
	return m.values[id] != 0
}

// set updates the RAM copy only.
func (m *mirror) set(id params.FieldID, value uint32) {
	m.values[id] = value
}

func (m *mirror) setBool(id params.FieldID, on bool) {
	var v uint32
	if on {
		v = 1
	}
	m.set(id, v)
}

// persist writes value through. The RAM copy keeps a value the medium
// failed to store so the next flush retries it.
func (m *mirror) persist(id params.FieldID, value uint32) error {
	err := m.store.Set(id, value)
	if err == nil || params.IsWrite(err) {
		m.values[id] = value
	}
	if err == nil {
		m.saved[id] = value
	}
	return err
}

func (m *mirror) persistBool(id params.FieldID, on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return m.persist(id, v)
}

// dirty lists the fields changed since last persisted.
func (m *mirror) dirty() []params.FieldID {
	var ids []params.FieldID
	layout := m.store.Layout()
	for n := range layout.Fields {
		id := layout.Fields[n].ID
		if v, ok := m.values[id]; ok && v != m.saved[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// flush writes all changed fields. It stops at the first failure.
func (m *mirror) flush() (int, error) {
	ids := m.dirty()
	for n, id := range ids {
		if err := m.store.Set(id, m.values[id]); err != nil {
			return n, err
		}
		m.saved[id] = m.values[id]
	}
	return len(ids), nil
}

func containsField(ids []params.FieldID, id params.FieldID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
