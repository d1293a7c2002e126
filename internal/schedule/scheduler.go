package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on five-field cron specs. A job still running when its next tick
// fires is skipped for that tick.
type CronScheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
	ctx  context.Context
}

func NewCronScheduler(logger logrus.FieldLogger) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		log:  logger.WithField("component", "scheduler"),
		ctx:  context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	log := c.log.WithFields(logrus.Fields{"job": job.Name(), "spec": spec})
	if _, err := c.cron.AddFunc(spec, c.wrap(job, log)); err != nil {
		log.WithError(err).Error("schedule job failed")
		return err
	}
	log.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	c.ctx = ctx
	c.cron.Start()
}

// Stop waits for running jobs to finish.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) wrap(job Job, log logrus.FieldLogger) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			log.Info("job skipped: still running")
			return
		}
		defer running.Store(false)

		start := time.Now()
		err := job.Run(c.ctx)
		entry := log.WithField("duration", time.Since(start).String())
		if err != nil {
			entry.WithError(err).Error("job finished")
			return
		}
		entry.Debug("job finished")
	}
}

// GarbageCollector is implemented by storage backends that need periodic compaction.
type GarbageCollector interface {
	RunGC(ctx context.Context) error
}

// GCJob compacts the storage backend.
type GCJob struct {
	Store GarbageCollector
}

func (GCJob) Name() string { return "storage_gc" }

func (j GCJob) Run(ctx context.Context) error {
	return j.Store.RunGC(ctx)
}
