package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderNoOpsBeforeInit(t *testing.T) {
	// Must not panic with nil collectors.
	r := NewRecorder()
	r.SecretMapped("basic_credentials")
	r.MappingFailed("ssh_key", ReasonInvalidJSON)
	r.FetchObserved("aws-sm", 0.2)
	r.VariablesWritten(3)
}

func TestRecorderCounts(t *testing.T) {
	Init()
	Init() // idempotent

	r := NewRecorder()

	mappedBefore := testutil.ToFloat64(secretsMappedTotal.WithLabelValues("database_credentials"))
	r.SecretMapped("database_credentials")
	r.SecretMapped("database_credentials")
	assert.Equal(t, mappedBefore+2,
		testutil.ToFloat64(secretsMappedTotal.WithLabelValues("database_credentials")))

	failedBefore := testutil.ToFloat64(mappingFailuresTotal.WithLabelValues("key_value", ReasonMissingField))
	r.MappingFailed("key_value", ReasonMissingField)
	assert.Equal(t, failedBefore+1,
		testutil.ToFloat64(mappingFailuresTotal.WithLabelValues("key_value", ReasonMissingField)))

	writtenBefore := testutil.ToFloat64(variablesWrittenTotal)
	r.VariablesWritten(6)
	r.VariablesWritten(0)
	r.VariablesWritten(-2)
	assert.Equal(t, writtenBefore+6, testutil.ToFloat64(variablesWrittenTotal))
}

func TestRecorderFetchHistogram(t *testing.T) {
	Init()

	r := NewRecorder()
	r.FetchObserved("gcp-sm", 0.05)
	r.FetchObserved("gcp-sm", 1.5)

	count := testutil.CollectAndCount(fetchDuration)
	require.Positive(t, count)
}
