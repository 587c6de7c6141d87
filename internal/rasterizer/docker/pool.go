package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Pool keeps a number of idle sandbox containers running so an export does
// not pay for a container start.
//
// Containers are single use: the caller removes a container after one
// export and the manager replaces it.
type Pool struct {
	cli        client.APIClient
	config     Config
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startDone  sync.Once
	stopDone   sync.Once
}

// NewPool creates an empty pool; Start fills it.
func NewPool(cli client.APIClient, cfg Config, logger *slog.Logger) *Pool {
	return &Pool{
		cli:        cli,
		config:     cfg,
		logger:     logger,
		containers: make(chan string, cfg.PoolSize),
		done:       make(chan struct{}),
	}
}

// Start begins filling the pool with fresh containers in the background.
func (p *Pool) Start() {
	p.startDone.Do(func() {
		p.logger.Info("starting sandbox container pool", slog.Int("pool_size", p.config.PoolSize))
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and removes all idle containers. It is safe
// to call more than once.
func (p *Pool) Stop() {
	p.stopDone.Do(func() {
		p.logger.Info("shutting down sandbox container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.Discard(id)
			default:
				return
			}
		}
	})
}

// Acquire takes an idle container out of the pool, waiting until one is
// ready. The caller owns it and must hand it to Discard when done.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("docker: pool is stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// manager keeps the pool at capacity until Stop is called.
func (p *Pool) manager() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) >= cap(p.containers) {
			p.sleep(100 * time.Millisecond)
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create sandbox container", slog.String("error", err.Error()))
			p.sleep(time.Second) // backoff
			continue
		}

		select {
		case p.containers <- id:
		case <-p.done:
			p.Discard(id)
			return
		}
	}
}

// sleep waits for d or until the pool is stopped.
func (p *Pool) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.done:
	}
}

// createContainer starts an idle container that exec sessions attach to.
// The image's own entrypoint (wkhtmltopdf) is replaced by a sleep.
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   p.config.MemoryLimit,
			NanoCPUs: int64(p.config.CPULimit * 1e9),
		},
		AutoRemove:     false,
		ReadonlyRootfs: true,
		// fontconfig and Qt need somewhere to write caches
		Tmpfs: map[string]string{"/tmp": "rw,size=64m"},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:      p.config.Image,
		Entrypoint: []string{"sleep"},
		Cmd:        []string{"infinity"},
		Env:        []string{"HOME=/tmp", "XDG_RUNTIME_DIR=/tmp"},
		User:       "nobody",
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.Discard(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}

// Discard force removes a used container. The manager starts a fresh one
// in its place.
func (p *Pool) Discard(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Warn("failed to remove sandbox container", slog.String("id", id), slog.String("error", err.Error()))
	}
}
