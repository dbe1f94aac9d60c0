package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// SessionSweeper remove sessões de refresh vencidas.
type SessionSweeper interface {
	SweepExpiredSessions(ctx context.Context) (int, error)
}

// Scheduler executa tarefas periódicas do servidor.
type Scheduler struct {
	scheduler gocron.Scheduler
	sweeper   SessionSweeper
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New cria o scheduler; interval <= 0 usa uma hora.
func New(sweeper SessionSweeper, interval time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("jobs: sweeper obrigatório")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	js := &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.sweepSessions),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start inicia os jobs. Seguro para chamar múltiplas vezes.
func (js *Scheduler) Start() {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.started {
		return
	}
	js.started = true
	js.logger.Info().Dur("interval", js.interval).Msg("jobs: scheduler iniciado")
	js.scheduler.Start()
}

// Stop cancela execuções em andamento e encerra o scheduler.
func (js *Scheduler) Stop() error {
	js.cancel()
	err := js.scheduler.Shutdown()
	js.logger.Info().Msg("jobs: scheduler encerrado")
	return err
}

// RunOnce executa a limpeza de sessões imediatamente.
func (js *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, js.timeout)
	defer cancel()
	return js.sweeper.SweepExpiredSessions(ctx)
}

func (js *Scheduler) sweepSessions() {
	n, err := js.RunOnce(js.ctx)
	if err != nil {
		js.logger.Error().Err(err).Msg("jobs: limpeza de sessões falhou")
		return
	}
	if n > 0 {
		js.logger.Info().Int("removed", n).Msg("jobs: sessões vencidas removidas")
	}
}
