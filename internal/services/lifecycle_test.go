package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	id       string
	startErr error
	log      *[]string
}

func (f *fakeService) ID() string { return f.id }

func (f *fakeService) Start(context.Context) error {
	*f.log = append(*f.log, "start "+f.id)
	return f.startErr
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop "+f.id)
	return nil
}

func TestRunnerOrder(t *testing.T) {
	var calls []string
	r := NewRunner(&fakeService{id: "a", log: &calls}, &fakeService{id: "b", log: &calls})
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, calls)
}

func TestRunnerStartFailureUnwinds(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	r := NewRunner(
		&fakeService{id: "a", log: &calls},
		&fakeService{id: "b", log: &calls, startErr: boom},
		&fakeService{id: "c", log: &calls},
	)
	err := r.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start a", "start b", "stop a"}, calls)
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	var calls []string
	r := NewRunner(&fakeService{id: "a", log: &calls})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, []string{"start a", "stop a"}, calls)
}

func TestServiceLogger(t *testing.T) {
	l := NewServiceLogger(&fakeService{id: "svc"})
	assert.NotNil(t, l.Info())
}
