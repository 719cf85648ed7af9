package persist

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/oliwoli/castcut/internal/editmodel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestBurstOfChangesCollapsesIntoOneWrite(t *testing.T) {
	var mu sync.Mutex
	var writes []*editmodel.Project

	p := New(func(proj *editmodel.Project) error {
		mu.Lock()
		writes = append(writes, proj)
		mu.Unlock()
		return nil
	}, 30*time.Millisecond, discardLog())

	for i := 0; i < 5; i++ {
		p.OnProjectChanged(nil, &editmodel.Project{ID: "proj-1"})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(writes) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, writes, 1, "rapid successive changes must collapse into a single debounced write")
	assert.Equal(t, "proj-1", writes[0].ID)
}

func TestWriteErrorIsLoggedNotPanicked(t *testing.T) {
	called := make(chan struct{}, 1)
	p := New(func(proj *editmodel.Project) error {
		called <- struct{}{}
		return assert.AnError
	}, 10*time.Millisecond, discardLog())

	p.OnProjectChanged(nil, &editmodel.Project{ID: "proj-err"})

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("write was never invoked")
	}
}

func TestAttachSubscribesToEngineChanges(t *testing.T) {
	var mu sync.Mutex
	var last *editmodel.Project

	p := New(func(proj *editmodel.Project) error {
		mu.Lock()
		last = proj
		mu.Unlock()
		return nil
	}, 10*time.Millisecond, discardLog())

	e := editmodel.NewEngine(discardLog())
	p.Attach(e)

	e.CreateEmptyProject(editmodel.ProjectConfig{})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last != nil && last.ID != ""
	}, time.Second, 5*time.Millisecond)
}
