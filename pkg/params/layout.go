package params

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/robotalks/beacon.go/pkg/nvm"
)

// FieldID identifies a persisted field.
type FieldID int

// Persisted fields.
const (
	TimeCount FieldID = iota
	ParamsSaved
	HibernationFlag
	HibernationInitialTime
	HibernationDuration
	EnergyLevel
	LastEnergyLevelSet
	DeployHibernationExecuted
	DeploymentAttempts
	EPSLastTimeValidPacket
	EPSErrorCount
	EPSIsDead
	OBDHLastTimeValidPacket
	OBDHErrorCount
	OBDHIsDead

	NumFields
)

// Regions.
const (
	RegionSystemTime   nvm.Region = 0
	RegionSystemParams nvm.Region = 1
)

// DefaultGeometry is the geometry DefaultLayout is designed for.
var DefaultGeometry = nvm.Geometry{nvm.DefaultRegionSize, nvm.DefaultRegionSize}

// ParamsSavedMarker is the value of ParamsSaved once defaults are written.
const ParamsSavedMarker = 1

// Copy locates one copy of a field value and its checksum byte.
type Copy struct {
	Offset   int
	Checksum int
}

// Field describes a persisted value.
type Field struct {
	ID      FieldID
	Name    string
	Region  nvm.Region
	Width   int
	Primary Copy
	Backup  *Copy
	Default uint32
}

// Redundant indicates the field keeps a backup copy.
func (f *Field) Redundant() bool {
	return f.Backup != nil
}

// Max is the largest value the field can hold.
func (f *Field) Max() uint32 {
	if f.Width >= 4 {
		return 0xffffffff
	}
	return 1<<(8*uint(f.Width)) - 1
}

// Copies returns the copies in write order.
func (f *Field) Copies() []Copy {
	if f.Backup == nil {
		return []Copy{f.Primary}
	}
	return []Copy{f.Primary, *f.Backup}
}

// Layout is the declarative field table.
type Layout struct {
	Geometry nvm.Geometry
	Fields   []Field

	byID   map[FieldID]*Field
	byName map[string]*Field
}

// DefaultLayout is the flight layout. time_count keeps the offsets of the
// segment A time record of the flight firmware.
var DefaultLayout = Layout{
	Geometry: DefaultGeometry,
	Fields: []Field{
		{ID: TimeCount, Name: "time_count", Region: RegionSystemTime, Width: 4,
			Primary: Copy{Offset: 0, Checksum: 8}, Backup: &Copy{Offset: 16, Checksum: 24}},

		{ID: ParamsSaved, Name: "params_saved_flag", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 0, Checksum: 1}, Default: ParamsSavedMarker},
		{ID: HibernationFlag, Name: "hibernation_flag", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 2, Checksum: 3}},
		{ID: HibernationInitialTime, Name: "hibernation_initial_time", Region: RegionSystemParams, Width: 4,
			Primary: Copy{Offset: 4, Checksum: 8}},
		{ID: HibernationDuration, Name: "hibernation_duration", Region: RegionSystemParams, Width: 4,
			Primary: Copy{Offset: 12, Checksum: 16}},
		{ID: EnergyLevel, Name: "energy_level", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 20, Checksum: 21}, Default: 5},
		{ID: LastEnergyLevelSet, Name: "last_energy_level_set", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 22, Checksum: 23}, Default: 5},
		{ID: DeployHibernationExecuted, Name: "deploy_hibernation_executed_flag", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 24, Checksum: 25}},
		{ID: DeploymentAttempts, Name: "deployment_attempts", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 26, Checksum: 27}},

		{ID: EPSLastTimeValidPacket, Name: "eps_last_time_valid_packet", Region: RegionSystemParams, Width: 4,
			Primary: Copy{Offset: 28, Checksum: 32}},
		{ID: EPSErrorCount, Name: "eps_error_count", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 36, Checksum: 37}},
		{ID: EPSIsDead, Name: "eps_is_dead_flag", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 38, Checksum: 39}},

		{ID: OBDHLastTimeValidPacket, Name: "obdh_last_time_valid_packet", Region: RegionSystemParams, Width: 4,
			Primary: Copy{Offset: 40, Checksum: 44}},
		{ID: OBDHErrorCount, Name: "obdh_error_count", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 48, Checksum: 49}},
		{ID: OBDHIsDead, Name: "obdh_is_dead_flag", Region: RegionSystemParams, Width: 1,
			Primary: Copy{Offset: 50, Checksum: 51}},
	},
}

// String implements fmt.Stringer.
func (id FieldID) String() string {
	if f := DefaultLayout.Field(id); f != nil {
		return f.Name
	}
	return fmt.Sprintf("field#%d", int(id))
}

func init() {
	if err := DefaultLayout.Resolve(); err != nil {
		panic(err)
	}
}

// Resolve validates the layout and builds the lookup indices.
func (l *Layout) Resolve() error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.byID = make(map[FieldID]*Field, len(l.Fields))
	l.byName = make(map[string]*Field, len(l.Fields))
	for n := range l.Fields {
		f := &l.Fields[n]
		l.byID[f.ID] = f
		l.byName[f.Name] = f
	}
	return nil
}

// Validate checks the layout is consistent: unique fields, supported
// widths, every span inside its region and no two spans overlapping.
func (l *Layout) Validate() error {
	type span struct {
		start, end int
		owner      string
	}

	ids := make(map[FieldID]string)
	names := make(map[string]bool)
	spans := make(map[nvm.Region][]span)
	for _, f := range l.Fields {
		if f.Name == "" {
			return errors.Errorf("field %d: name required", int(f.ID))
		}
		if prev, exists := ids[f.ID]; exists {
			return errors.Errorf("field %q: id %d already used by %q", f.Name, int(f.ID), prev)
		}
		if names[f.Name] {
			return errors.Errorf("field %q: duplicated name", f.Name)
		}
		ids[f.ID], names[f.Name] = f.Name, true
		if f.Width != 1 && f.Width != 2 && f.Width != 4 {
			return errors.Errorf("field %q: unsupported width %d", f.Name, f.Width)
		}
		if f.Default > f.Max() {
			return errors.Errorf("field %q: default %d exceeds width", f.Name, f.Default)
		}
		size := l.Geometry.Size(f.Region)
		if size == 0 {
			return errors.Errorf("field %q: unknown %s", f.Name, f.Region)
		}
		for n, c := range f.Copies() {
			owner := f.Name
			if n > 0 {
				owner += " (backup)"
			}
			for _, s := range []span{
				{c.Offset, c.Offset + f.Width, owner},
				{c.Checksum, c.Checksum + 1, owner + " checksum"},
			} {
				if s.start < 0 || s.end > size {
					return errors.Errorf("%s: span [%d, %d) outside %s of %d bytes", s.owner, s.start, s.end, f.Region, size)
				}
				spans[f.Region] = append(spans[f.Region], s)
			}
		}
	}
	for region, list := range spans {
		sort.Slice(list, func(i, j int) bool { return list[i].start < list[j].start })
		for i := 1; i < len(list); i++ {
			if list[i].start < list[i-1].end {
				return errors.Errorf("%s: %s overlaps %s", region, list[i].owner, list[i-1].owner)
			}
		}
	}
	return nil
}

// Field returns the field with id, nil if not found.
func (l *Layout) Field(id FieldID) *Field {
	return l.byID[id]
}

// Lookup finds a field by name.
func (l *Layout) Lookup(name string) (*Field, bool) {
	f, ok := l.byName[name]
	return f, ok
}
