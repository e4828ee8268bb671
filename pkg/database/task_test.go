package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Completed(t *testing.T) {
	task := Completed(42)
	select {
	case <-task.Done():
	default:
		t.Fatal("completed task is not done")
	}
	v, err := task.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestTask_Failed(t *testing.T) {
	task := Failed[string](mockErr)
	v, err := task.Wait()
	assert.Equal(t, mockErr, err)
	assert.Equal(t, "", v)
}

var mockErr = errors.New("mock error")

func TestTask_CompleteOnce(t *testing.T) {
	task := newTask[int]()
	assert.True(t, task.complete(1, nil))
	assert.False(t, task.complete(2, mockErr))

	v, err := task.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestTask_Go(t *testing.T) {
	task := Go(func() (string, error) {
		return "done", nil
	})
	v, err := task.Wait()
	require.NoError(t, err)
	require.Equal(t, "done", v)

	task = Go(func() (string, error) {
		return "", mockErr
	})
	_, err = task.Wait()
	require.Equal(t, mockErr, err)
}

func TestTask_GoPanic(t *testing.T) {
	task := Go(func() (int, error) {
		panic("board out of range")
	})
	_, err := task.Wait()
	require.Error(t, err)
}

func TestTask_ManyAwaiters(t *testing.T) {
	task := newTask[int]()
	var wg sync.WaitGroup
	got := make([]int, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = task.Await(context.Background())
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	task.complete(7, nil)
	wg.Wait()

	for _, v := range got {
		assert.Equal(t, 7, v)
	}
}

func TestTask_AwaitContext(t *testing.T) {
	task := newTask[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := task.Await(ctx)
	assert.Equal(t, context.Canceled, err)

	task.complete(3, nil)
	v, err := task.Await(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
}
