package params

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon.go/pkg/checksum"
	"github.com/robotalks/beacon.go/pkg/nvm"
)

type writeOp struct {
	region nvm.Region
	offset int
	data   []byte
}

// recordingMedium records writes and can simulate a power cut by
// rejecting every write after a budget is consumed.
type recordingMedium struct {
	*nvm.Memory
	writes []writeOp
	budget int
}

var errPowerCut = errors.New("power cut")

func newRecordingMedium() *recordingMedium {
	return &recordingMedium{Memory: nvm.NewMemory(DefaultGeometry), budget: -1}
}

func (m *recordingMedium) Write(region nvm.Region, offset int, data []byte) error {
	if m.budget == 0 {
		return errPowerCut
	}
	if m.budget > 0 {
		m.budget--
	}
	m.writes = append(m.writes, writeOp{region: region, offset: offset, data: append([]byte(nil), data...)})
	return m.Memory.Write(region, offset, data)
}

func newTestStore(t *testing.T) (*Store, *recordingMedium) {
	m := newRecordingMedium()
	s, err := NewStore(m, &DefaultLayout)
	require.NoError(t, err)
	return s, m
}

func TestInitFirstBootWritesDefaults(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Init())
	require.True(t, s.FirstBoot())

	last := m.writes[len(m.writes)-2:]
	saved := DefaultLayout.Field(ParamsSaved)
	require.Equal(t, saved.Primary.Offset, last[0].offset)
	require.Equal(t, saved.Primary.Checksum, last[1].offset)

	for _, f := range DefaultLayout.Fields {
		v, err := s.Get(f.ID)
		require.NoError(t, err, f.Name)
		require.Equal(t, f.Default, v, f.Name)
	}

	m.writes = nil
	require.NoError(t, s.Init())
	require.False(t, s.FirstBoot())
	require.Empty(t, m.writes, "validating boot must not write")
}

func TestInitInterruptedFirstBootRestarts(t *testing.T) {
	s, m := newTestStore(t)
	m.budget = 7
	err := s.Init()
	require.Error(t, err)
	require.True(t, IsWrite(err))

	m.budget = -1
	require.NoError(t, s.Init())
	require.True(t, s.FirstBoot(), "marker is written last, so the next boot starts over")
	v, err := s.Get(DeploymentAttempts)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestSetGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Init())
	for _, f := range DefaultLayout.Fields {
		values := []uint32{0, 1, f.Max() / 2, f.Max() - 1, f.Max()}
		for _, v := range values {
			require.NoError(t, s.Set(f.ID, v), "%s=%d", f.Name, v)
			got, err := s.Get(f.ID)
			require.NoError(t, err)
			require.Equal(t, v, got, f.Name)
		}
	}
}

func TestSetOutOfRange(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Set(DeploymentAttempts, 256)
	require.Error(t, err)
	require.Equal(t, ErrOutOfRange, pkgerrors.Cause(err))
	require.Equal(t, ErrUnknownField, s.Set(FieldID(99), 0))
	_, err = s.Get(FieldID(99))
	require.Equal(t, ErrUnknownField, err)
}

func TestSetWriteOrder(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Set(TimeCount, 0x00015180))
	require.Equal(t, []writeOp{
		{RegionSystemTime, 0, []byte{0x00, 0x01, 0x51, 0x80}},
		{RegionSystemTime, 8, []byte{checksum.CRC8([]byte{0x00, 0x01, 0x51, 0x80})}},
		{RegionSystemTime, 16, []byte{0x00, 0x01, 0x51, 0x80}},
		{RegionSystemTime, 24, []byte{checksum.CRC8([]byte{0x00, 0x01, 0x51, 0x80})}},
	}, m.writes)
}

func TestCorruptedPrimaryFallsBackAndIsRepaired(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Set(TimeCount, 1000))

	require.NoError(t, m.Flip(RegionSystemTime, 2, 0x10))
	v, err := s.Get(TimeCount)
	require.NoError(t, err)
	require.Equal(t, uint32(1000), v)
	require.NoError(t, s.Init(), "one valid copy is enough")

	require.NoError(t, s.Set(TimeCount, 1001))
	// primary alone must now be valid again
	require.NoError(t, m.Flip(RegionSystemTime, 16, 0x01))
	v, err = s.Get(TimeCount)
	require.NoError(t, err)
	require.Equal(t, uint32(1001), v)
}

func TestCorruptedChecksumFallsBack(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Set(TimeCount, 42))
	require.NoError(t, m.Flip(RegionSystemTime, 8, 0x04))
	v, err := s.Get(TimeCount)
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)
}

func TestDualCorruption(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Set(TimeCount, 7))
	require.NoError(t, m.Flip(RegionSystemTime, 3, 0x01))
	require.NoError(t, m.Flip(RegionSystemTime, 19, 0x02))

	_, err := s.Get(TimeCount)
	require.Error(t, err)
	require.True(t, IsIntegrity(err))
	ie := err.(*IntegrityError)
	require.True(t, ie.Has(TimeCount))

	err = s.Init()
	require.True(t, IsIntegrity(err))
	require.Equal(t, []FieldID{TimeCount}, err.(*IntegrityError).Fields)

	require.NoError(t, s.Set(TimeCount, 8))
	v, err := s.Get(TimeCount)
	require.NoError(t, err)
	require.Equal(t, uint32(8), v)
}

func TestInitReportsAllCorruptedFields(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Init())
	attempts := DefaultLayout.Field(DeploymentAttempts)
	errs := DefaultLayout.Field(EPSErrorCount)
	require.NoError(t, m.Flip(RegionSystemParams, attempts.Primary.Offset, 0x01))
	require.NoError(t, m.Flip(RegionSystemParams, errs.Primary.Checksum, 0x80))

	err := s.Init()
	require.True(t, IsIntegrity(err))
	require.Equal(t, []FieldID{DeploymentAttempts, EPSErrorCount}, err.(*IntegrityError).Fields)
	require.False(t, s.FirstBoot())
}

func TestInitCorruptedMarkerRewritesDefaults(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Set(DeploymentAttempts, 3))
	require.NoError(t, m.Flip(RegionSystemParams, 0, 0x02))

	require.NoError(t, s.Init())
	require.True(t, s.FirstBoot())
	v, err := s.Get(DeploymentAttempts)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestTornWriteIsDetected(t *testing.T) {
	s, m := newTestStore(t)
	require.NoError(t, s.Set(TimeCount, 500))

	// the primary value lands but its checksum doesn't
	m.budget = 1
	err := s.Set(TimeCount, 501)
	require.Error(t, err)
	we, ok := err.(*WriteError)
	require.True(t, ok)
	require.Equal(t, TimeCount, we.Field)
	require.False(t, we.Backup)
	require.Equal(t, errPowerCut, we.Cause())

	m.budget = -1
	v, err := s.Get(TimeCount)
	require.NoError(t, err)
	require.Equal(t, uint32(500), v, "stale checksum makes the backup authoritative")
}

func TestBoolHelpers(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetBool(HibernationFlag, true))
	on, err := s.GetBool(HibernationFlag)
	require.NoError(t, err)
	require.True(t, on)
	v, err := s.Get(HibernationFlag)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
	require.NoError(t, s.SetBool(HibernationFlag, false))
	on, err = s.GetBool(HibernationFlag)
	require.NoError(t, err)
	require.False(t, on)
}

func TestNewStoreRequiresMarker(t *testing.T) {
	l := &Layout{
		Geometry: nvm.Geometry{8},
		Fields:   []Field{{ID: TimeCount, Name: "time_count", Width: 4, Primary: Copy{0, 4}}},
	}
	_, err := NewStore(nvm.NewMemory(l.Geometry), l)
	require.Error(t, err)
}
