package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type LocalLockerTestSuite struct {
	suite.Suite
	locker *LocalLocker
}

func TestLocalLockerSuite(t *testing.T) {
	suite.Run(t, new(LocalLockerTestSuite))
}

func (s *LocalLockerTestSuite) SetupTest() {
	s.locker = NewLocalLocker()
}

func (s *LocalLockerTestSuite) TestMutualExclusion() {
	var inside, maxInside atomic.Int32
	var counter int

	g, ctx := errgroup.WithContext(s.T().Context())
	for range 50 {
		g.Go(func() error {
			unlock, err := s.locker.Lock(ctx, "member-1")
			if err != nil {
				return err
			}
			defer unlock()

			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			counter++
			inside.Add(-1)
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Equal(50, counter)
	s.Equal(int32(1), maxInside.Load())
	s.Equal(0, s.locker.size(), "записи ключей должны удаляться")
}

func (s *LocalLockerTestSuite) TestDifferentKeysDoNotBlock() {
	unlockA, err := s.locker.Lock(s.T().Context(), "a")
	s.Require().NoError(err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(s.T().Context(), time.Second)
	defer cancel()
	unlockB, err := s.locker.Lock(ctx, "b")
	s.Require().NoError(err)
	unlockB()
}

func (s *LocalLockerTestSuite) TestContextCancelled() {
	unlock, err := s.locker.Lock(s.T().Context(), "a")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.T().Context(), 20*time.Millisecond)
	defer cancel()
	_, err = s.locker.Lock(ctx, "a")
	s.Require().ErrorIs(err, context.DeadlineExceeded)

	unlock()
	s.Equal(0, s.locker.size())
}

func (s *LocalLockerTestSuite) TestUnlockIdempotent() {
	unlock, err := s.locker.Lock(s.T().Context(), "a")
	s.Require().NoError(err)
	unlock()
	unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		again, lockErr := s.locker.Lock(s.T().Context(), "a")
		s.NoError(lockErr)
		again()
	}()
	wg.Wait()
}
