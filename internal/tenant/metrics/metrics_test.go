package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveInvite(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveInvite("", time.Now())
	m.ObserveInvite("conflict", time.Now())
	m.ObserveInvite("conflict", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invitations.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invitations.WithLabelValues("conflict")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InviteDuration))
}

func TestIncrementPublishFailure(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementPublishFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
}
