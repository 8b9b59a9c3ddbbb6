package taskrunner

import (
	"encoding/gob"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A, B int
}

func init() {
	gob.Register(addArgs{})
}

func TestPoolRunsRegisteredCallable(t *testing.T) {
	p := New(2, 4)
	p.Register("add", func(args any) (any, error) {
		a := args.(addArgs)
		return a.A + a.B, nil
	})
	p.Start()
	defer p.Stop()

	id := p.Add("add", addArgs{A: 2, B: 3})
	results, err := p.Execute(1)
	require.NoError(t, err)
	assert.Equal(t, 5, results[id].Value)
}

func TestPoolFansOutAcrossMultipleWorkers(t *testing.T) {
	p := New(4, 16)
	p.Register("add", func(args any) (any, error) {
		a := args.(addArgs)
		return a.A + a.B, nil
	})
	p.Start()
	defer p.Stop()

	ids := make([]uint64, 10)
	for i := range ids {
		ids[i] = p.Add("add", addArgs{A: i, B: 1})
	}
	results, err := p.Execute(10)
	require.NoError(t, err)
	for i, id := range ids {
		assert.Equal(t, i+1, results[id].Value)
	}
}

func TestPoolCapturesCallableError(t *testing.T) {
	p := New(1, 2)
	p.Register("fail", func(args any) (any, error) {
		return nil, errors.New("boom")
	})
	p.Start()
	defer p.Stop()

	p.Add("fail", nil)
	results, err := p.Execute(1)
	assert.Error(t, err)
	assert.Contains(t, results[1].Err, "boom")
}

func TestPoolCapturesPanicAsError(t *testing.T) {
	p := New(1, 2)
	p.Register("panics", func(args any) (any, error) {
		panic("kaboom")
	})
	p.Start()
	defer p.Stop()

	p.Add("panics", nil)
	results, err := p.Execute(1)
	assert.Error(t, err)
	assert.Contains(t, results[1].Err, "kaboom")
}

func TestPoolDeepCopiesArgs(t *testing.T) {
	p := New(1, 2)
	done := make(chan struct{})
	p.Register("readA", func(args any) (any, error) {
		<-done // block until the submitter has had a chance to mutate
		a := args.(addArgs)
		return a.A, nil
	})
	p.Start()
	defer p.Stop()

	submitted := addArgs{A: 1}
	id := p.Add("readA", submitted)
	submitted.A = 999 // mutate after Add returns
	close(done)

	results, err := p.Execute(1)
	require.NoError(t, err)
	assert.Equal(t, 1, results[id].Value)
}
