// Package upload drives one file from submission to extracted entities.
//
// A Controller uploads the file, polls the processing job until it reaches a
// terminal status and fetches the extracted entities exactly once. It holds at
// most one job at a time. Responses belonging to a job that was reset or
// replaced are discarded.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/poll"
)

var (
	// ErrBusy is returned when a file is submitted while another one is
	// still uploading or processing.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("upload controller closed")
)

// User visible texts.
const (
	MsgUploading       = "正在上传文件..."
	MsgUploaded        = "文件上传成功，正在处理..."
	MsgUploadFailed    = "上传失败"
	NoticeUploadFailed = "文件上传失败"
	NoticeUnsupported  = "只支持上传CSV、Excel、Word或TXT文件!"
	NoticeCompleted    = "文件处理完成!"
	NoticeFailedPrefix = "处理失败: "
	NoticePollFailed   = "检查处理状态失败"
)

// FileAPI is the part of the backend API the controller needs.
type FileAPI interface {
	UploadFile(ctx context.Context, fileName string, contentType string, file io.Reader) (api.UploadResponse, error)
	GetProcessingStatus(ctx context.Context, jobID string) (common.JobStatus, error)
	GetJobEntities(ctx context.Context, jobID string) ([]common.Entity, error)
}

// State is a snapshot of the controller.
type State struct {
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Message  string          `json:"message"`
	JobID    string          `json:"job_id,omitempty"`
	FileName string          `json:"file_name,omitempty"`
	FileIcon string          `json:"file_icon,omitempty"`
	Entities []common.Entity `json:"entities"`
	// Busy is set while a file is uploading, its job is being polled or the
	// entities of a completed job are being fetched.
	Busy bool `json:"busy"`
}

// Controller runs the upload flow. Callbacks are invoked without internal
// locks held and must not call Close.
//
// A Controller should be created using NewController.
type Controller struct {
	api        FileAPI
	interval   time.Duration
	onEntities func([]common.Entity)
	onNotice   func(common.Notice)
	onChange   func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State
	gen     uint64
	lastSeq uint64
	loop    *poll.Loop[common.JobStatus]
	closed  bool
}

// NewControllerParams defines the collaborators of a Controller.
//
// API is required. Interval defaults to poll.DefaultInterval. OnEntities
// receives the entities of every completed job, once. OnNotice receives user
// visible notices and OnChange every state change.
type NewControllerParams struct {
	API        FileAPI
	Interval   time.Duration
	OnEntities func([]common.Entity)
	OnNotice   func(common.Notice)
	OnChange   func(State)
}

// NewController creates a Controller.
func NewController(params NewControllerParams) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:        params.API,
		interval:   params.Interval,
		onEntities: params.OnEntities,
		onNotice:   params.OnNotice,
		onChange:   params.OnChange,
		ctx:        ctx,
		cancel:     cancel,
	}
	if c.interval <= 0 {
		c.interval = poll.DefaultInterval
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	s.Busy = c.busyLocked()
	s.Entities = append([]common.Entity(nil), c.state.Entities...)
	return s
}

// Submit uploads file and starts polling its processing job. It returns once
// the upload request finished; processing continues in the background.
//
// Unsupported files fail with ErrUnsupportedFileType before any request is
// made and leave the state untouched.
func (c *Controller) Submit(ctx context.Context, fileName string, contentType string, file io.Reader) error {
	fileType, err := ResolveFileType(fileName, contentType)
	if err != nil {
		logger.Warn("[Upload] Rejected file", "file", fileName, "content_type", contentType)
		c.notify(common.NoticeError, NoticeUnsupported)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.stopLoopLocked()
	c.gen++
	gen := c.gen
	c.state = State{
		Status:   common.StatusUploading,
		Progress: 0,
		Message:  MsgUploading,
		FileName: fileName,
		FileIcon: FileIcon(fileName),
	}
	c.mu.Unlock()
	c.changed()

	logger.Info("[Upload] Uploading file", "file", fileName, "type", fileType)
	res, err := c.api.UploadFile(ctx, fileName, fileType, file)
	if err != nil {
		logger.Error("[Upload] Failed to upload file", "file", fileName, "err", err)
		if c.current(gen) {
			c.mu.Lock()
			c.state.Status = common.StatusError
			c.state.Message = MsgUploadFailed
			c.mu.Unlock()
			c.notify(common.NoticeError, NoticeUploadFailed)
			c.changed()
		}
		return fmt.Errorf("failed to upload %s: %w", fileName, err)
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		logger.Debug("[Upload] Dropping upload result of a reset job", "job_id", res.JobID)
		return nil
	}
	c.state.JobID = res.JobID
	c.state.Status = common.StatusProcessing
	c.state.Progress = 10
	c.state.Message = MsgUploaded
	c.lastSeq = 0
	c.startLoopLocked(gen, res.JobID)
	c.mu.Unlock()
	c.changed()

	logger.Info("[Upload] File uploaded, polling job", "file", fileName, "job_id", res.JobID)
	return nil
}

func (c *Controller) busyLocked() bool {
	return c.state.Status == common.StatusUploading || c.loop != nil
}

// startLoopLocked starts the poll loop of a job. c.mu must be held.
func (c *Controller) startLoopLocked(gen uint64, jobID string) {
	loop := poll.Start(c.ctx, poll.Options[common.JobStatus]{
		Interval: c.interval,
		Fetch: func(ctx context.Context) (common.JobStatus, error) {
			return c.api.GetProcessingStatus(ctx, jobID)
		},
		Done: func(s common.JobStatus) bool {
			return common.IsTerminal(s.Status)
		},
		OnTick: func(seq uint64, s common.JobStatus) {
			c.onTick(gen, jobID, seq, s)
		},
	})
	c.loop = loop

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watch(gen, jobID, loop)
	}()
}

// stopLoopLocked cancels the active loop without waiting. c.mu must be held.
func (c *Controller) stopLoopLocked() {
	if c.loop != nil {
		c.loop.Cancel()
		c.loop = nil
	}
}

func (c *Controller) onTick(gen uint64, jobID string, seq uint64, s common.JobStatus) {
	c.mu.Lock()
	if c.closed || gen != c.gen || seq <= c.lastSeq {
		c.mu.Unlock()
		metrics.Default().IncPollTickTotal("upload", "stale")
		return
	}
	c.lastSeq = seq
	c.state.Status = s.Status
	c.state.Progress = s.Progress
	c.state.Message = s.Message
	c.mu.Unlock()

	metrics.Default().IncPollTickTotal("upload", s.Status)
	logger.Debug("[Upload] Job status", "job_id", jobID, "status", s.Status, "progress", s.Progress)
	c.changed()
}

// watch waits for the loop of one job to end and finishes the job. The
// controller stays busy until the job's entities are stored.
func (c *Controller) watch(gen uint64, jobID string, loop *poll.Loop[common.JobStatus]) {
	last, err := loop.Wait()
	if errors.Is(err, poll.ErrStopped) || !c.current(gen) {
		return
	}

	switch {
	case err != nil:
		logger.Error("[Upload] Failed to check processing status", "job_id", jobID, "err", err)
		metrics.Default().IncPollTickTotal("upload", "error")
		if c.finish(gen, loop, nil) {
			c.notify(common.NoticeError, NoticePollFailed)
		}
	case last.Status == common.StatusCompleted:
		c.complete(gen, jobID, loop)
	case last.Status == common.StatusFailed:
		logger.Warn("[Upload] Job failed", "job_id", jobID, "message", last.Message)
		if c.finish(gen, loop, nil) {
			c.notify(common.NoticeError, NoticeFailedPrefix+last.Message)
		}
	default:
		c.finish(gen, loop, nil)
	}
	c.changed()
}

func (c *Controller) complete(gen uint64, jobID string, loop *poll.Loop[common.JobStatus]) {
	entities, err := c.api.GetJobEntities(c.ctx, jobID)
	if err != nil {
		if c.finish(gen, loop, nil) {
			logger.Error("[Upload] Failed to fetch job entities", "job_id", jobID, "err", err)
			c.notify(common.NoticeError, NoticePollFailed)
		}
		return
	}
	if entities == nil {
		entities = []common.Entity{}
	}
	if !c.finish(gen, loop, entities) {
		return
	}

	logger.Info("[Upload] Job completed", "job_id", jobID, "entities", len(entities))
	if c.onEntities != nil {
		c.onEntities(append([]common.Entity(nil), entities...))
	}
	c.notify(common.NoticeSuccess, NoticeCompleted)
}

// finish releases the job of loop and stores its entities when non nil. It
// reports false when the job was reset or the controller closed meanwhile.
func (c *Controller) finish(gen uint64, loop *poll.Loop[common.JobStatus], entities []common.Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return false
	}
	if c.loop == loop {
		c.loop = nil
	}
	if entities != nil {
		c.state.Entities = entities
	}
	return true
}

// Reset forgets the current file: job, status, progress and entities are
// cleared and polling stops. Late responses of the old job are ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopLoopLocked()
	c.gen++
	c.lastSeq = 0
	c.state = State{}
	c.mu.Unlock()
	c.changed()
}

// Close stops polling and waits for background work to end. No callback
// runs after Close returns. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	loop := c.loop
	c.loop = nil
	c.mu.Unlock()

	c.cancel()
	if loop != nil {
		loop.Stop()
	}
	c.wg.Wait()
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && gen == c.gen
}

func (c *Controller) notify(level common.NoticeLevel, text string) {
	if c.onNotice != nil {
		c.onNotice(common.Notice{Level: level, Text: text})
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
