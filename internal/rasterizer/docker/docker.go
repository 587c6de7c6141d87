// Package docker rasterizes cards with wkhtmltoimage running in throwaway
// sandbox containers: no network, read-only root filesystem, capped memory
// and CPU. The document goes in on stdin and the PNG comes out on stdout.
//
// wkhtmltoimage cannot crop to an element, so the whole page is captured;
// render.Document produces a page holding only the card.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/business-cards/internal/rasterizer"
)

// Rasterizer implements rasterizer.Rasterizer using Docker.
type Rasterizer struct {
	cli    client.APIClient
	config Config
	logger *slog.Logger
	pool   *Pool
}

var _ rasterizer.Rasterizer = (*Rasterizer)(nil)

// New connects to the Docker daemon, pulls the image and starts the pool.
func New(cfg Config, logger *slog.Logger) (*Rasterizer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	if err := waitForPull(reader); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	logger.Info("docker image is ready")

	r := &Rasterizer{
		cli:    cli,
		config: cfg,
		logger: logger,
	}

	r.pool = NewPool(cli, cfg, logger)
	r.pool.Start()

	return r, nil
}

// waitForPull drains the pull progress stream. The pull only completes once
// the stream is read to the end, and a failed pull is reported inside the
// stream rather than by ImagePull.
func waitForPull(progress io.Reader) error {
	return jsonmessage.DisplayJSONMessagesStream(progress, io.Discard, 0, false, nil)
}

// Close shuts down the pool and the docker client.
func (r *Rasterizer) Close() error {
	r.pool.Stop()
	return r.cli.Close()
}

// Command returns the wkhtmltoimage invocation for a request.
func Command(req rasterizer.Request) []string {
	return []string{
		"wkhtmltoimage",
		"--quiet",
		"--format", "png",
		"--width", strconv.Itoa(req.WidthOrDefault()),
		"--disable-javascript",
		"--transparent",
		"-", "-",
	}
}

// Rasterize renders the document in a pooled container.
func (r *Rasterizer) Rasterize(ctx context.Context, req rasterizer.Request) ([]byte, error) {
	start := time.Now()

	containerID, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker: acquiring container: %w", err)
	}
	// containers are single use
	defer r.pool.Discard(containerID)

	execCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	execResp, err := r.cli.ContainerExecCreate(execCtx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          Command(req),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := r.cli.ContainerExecAttach(execCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		done <- err
	}()

	if _, err := io.Copy(attachResp.Conn, strings.NewReader(req.Document)); err != nil {
		return nil, fmt.Errorf("failed to send document: %w", err)
	}
	if err := attachResp.CloseWrite(); err != nil {
		return nil, fmt.Errorf("failed to close stdin: %w", err)
	}

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("reading renderer output: %w", err)
		}
	case <-execCtx.Done():
		return nil, fmt.Errorf("rendering timed out after %s", r.config.Timeout)
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}
	if inspect.ExitCode != 0 {
		return nil, fmt.Errorf("wkhtmltoimage exited with %d: %s", inspect.ExitCode, strings.TrimSpace(stderr.String()))
	}
	if !rasterizer.IsPNG(stdout.Bytes()) {
		return nil, errors.New("wkhtmltoimage produced no PNG")
	}

	r.logger.Debug("card rasterized",
		slog.String("container", containerID),
		slog.Int("bytes", stdout.Len()),
		slog.Duration("duration", time.Since(start)),
	)

	return stdout.Bytes(), nil
}
