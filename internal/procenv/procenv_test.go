package procenv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDebugConfigDefaultsToTraceReferenceAssembliesTrueAndDisabled(t *testing.T) {
	d := NewDebugConfig()
	require.True(t, d.TraceReferenceAssemblies, "expected TraceReferenceAssemblies to default true")
	require.False(t, d.Enabled(), "expected a fresh DebugConfig to have tracing disabled")
}

func TestDebugConfigTracksAssemblyIDsAndOffsets(t *testing.T) {
	d := NewDebugConfig()
	d.TraceAssemblyID(42)
	d.TraceOffset(100)

	require.True(t, d.Enabled(), "expected Enabled() once something is traced")
	require.True(t, d.TracingAssemblyID(42))
	require.False(t, d.TracingAssemblyID(43), "TracingAssemblyID should match only ids explicitly traced")
	require.True(t, d.TracingOffset(100))
	require.False(t, d.TracingOffset(101), "TracingOffset should match only offsets explicitly traced")
}

func TestNilDebugConfigIsSafeAndReportsDisabled(t *testing.T) {
	var d *DebugConfig
	require.False(t, d.Enabled(), "nil DebugConfig should report disabled")
	require.False(t, d.TracingAssemblyID(1), "nil DebugConfig should never report anything traced")
	require.False(t, d.TracingOffset(1), "nil DebugConfig should never report anything traced")
}

func TestParseTraceIDsAddsEachCommaSeparatedID(t *testing.T) {
	d := NewDebugConfig()
	require.NoError(t, d.ParseTraceIDs(" 1, 2,3 ,"))
	for _, id := range []uint64{1, 2, 3} {
		require.Truef(t, d.TracingAssemblyID(id), "expected id %d to be traced", id)
	}
}

func TestParseTraceIDsRejectsNonNumericField(t *testing.T) {
	d := NewDebugConfig()
	require.Error(t, d.ParseTraceIDs("1,notanumber"), "expected an error for a non-numeric id")
}

func TestNewRunContextCapturesArgvAndDefaultDebugConfig(t *testing.T) {
	rc := NewRunContext()
	require.NotEmpty(t, rc.CommandLine, "expected CommandLine to be populated from os.Args")
	require.NotNil(t, rc.Debug)
	require.True(t, rc.Debug.TraceReferenceAssemblies, "expected a default-configured Debug")
}
