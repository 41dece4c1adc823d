// Package providerstest holds hand-written fakes for the six provider
// capability interfaces, used by task executor and state machine unit
// tests in place of real SCM/CICD/etc. credentials.
package providerstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

// FakeSCM records ForkBranch/CreateTag calls and fails when Err is set.
type FakeSCM struct {
	mu             sync.Mutex
	Err            error
	ForkedBranches []string
	Tags           []string
}

// ForkBranch implements providers.SCM.
func (f *FakeSCM) ForkBranch(_ context.Context, _, newBranch string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ForkedBranches = append(f.ForkedBranches, newBranch)
	return nil
}

// CreateTag implements providers.SCM.
func (f *FakeSCM) CreateTag(_ context.Context, _, tag string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tags = append(f.Tags, tag)
	return nil
}

// FakeCICD returns scripted queue/build statuses keyed by call count, so
// tests can simulate a build progressing from pending to completed across
// successive poller ticks.
type FakeCICD struct {
	mu sync.Mutex

	TriggerErr error
	NextRunID  string

	QueueResults []models.QueueStatusResult
	BuildResults []models.BuildStatusResult

	queueCalls int
	buildCalls int
}

// TriggerBuild implements providers.CICD.
func (f *FakeCICD) TriggerBuild(_ context.Context, req providers.BuildTriggerRequest) (models.QueueStatusResult, error) {
	if f.TriggerErr != nil {
		return models.QueueStatusResult{}, f.TriggerErr
	}
	return models.QueueStatusResult{Started: true, Location: "queue/" + req.WorkflowName}, nil
}

// GetQueueStatus implements providers.CICD, returning QueueResults in
// order and repeating the last entry once exhausted.
func (f *FakeCICD) GetQueueStatus(_ context.Context, location string) (models.QueueStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.QueueResults) == 0 {
		return models.QueueStatusResult{Started: true, RunID: f.NextRunID, Location: location}, nil
	}
	idx := f.queueCalls
	if idx >= len(f.QueueResults) {
		idx = len(f.QueueResults) - 1
	}
	f.queueCalls++
	return f.QueueResults[idx], nil
}

// GetBuildStatus implements providers.CICD, returning BuildResults in
// order and repeating the last entry once exhausted.
func (f *FakeCICD) GetBuildStatus(_ context.Context, _ string) (models.BuildStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.BuildResults) == 0 {
		return models.BuildStatusResult{Status: models.WorkflowCompleted}, nil
	}
	idx := f.buildCalls
	if idx >= len(f.BuildResults) {
		idx = len(f.BuildResults) - 1
	}
	f.buildCalls++
	return f.BuildResults[idx], nil
}

// FakeProjectMgmt assigns a sequential ticket ID to every CreateTicket
// call.
type FakeProjectMgmt struct {
	mu      sync.Mutex
	next    int
	Err     error
	Created []providers.TicketRequest
}

// CreateTicket implements providers.ProjectMgmt.
func (f *FakeProjectMgmt) CreateTicket(_ context.Context, req providers.TicketRequest) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.Created = append(f.Created, req)
	return fmt.Sprintf("TICKET-%d", f.next), nil
}

// FakeTestMgmt assigns sequential suite/run IDs.
type FakeTestMgmt struct {
	mu   sync.Mutex
	next int
	Err  error
}

// CreateTestSuite implements providers.TestMgmt.
func (f *FakeTestMgmt) CreateTestSuite(_ context.Context, _, _ string) (string, error) {
	return f.nextID("SUITE")
}

// CreateTestRun implements providers.TestMgmt.
func (f *FakeTestMgmt) CreateTestRun(_ context.Context, _, _ string) (string, error) {
	return f.nextID("RUN")
}

func (f *FakeTestMgmt) nextID(prefix string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return fmt.Sprintf("%s-%d", prefix, f.next), nil
}

// FakeNotification records every Send call.
type FakeNotification struct {
	mu       sync.Mutex
	Err      error
	Messages []string
}

// Send implements providers.Notification.
func (f *FakeNotification) Send(_ context.Context, _ []string, message string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, message)
	return nil
}

// FakeStore records uploads and reports VerifyBuild as Verified.
type FakeStore struct {
	mu       sync.Mutex
	UploadErr error
	VerifyErr error
	Verified  bool
	Uploads   []providers.UploadRequest
}

// UploadBuild implements providers.Store.
func (f *FakeStore) UploadBuild(_ context.Context, req providers.UploadRequest) error {
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, req)
	return nil
}

// VerifyBuild implements providers.Store.
func (f *FakeStore) VerifyBuild(_ context.Context, _ models.Platform, _ string) (bool, error) {
	if f.VerifyErr != nil {
		return false, f.VerifyErr
	}
	return f.Verified, nil
}
