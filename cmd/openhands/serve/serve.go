// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve implements "openhands serve": launching the OpenHands
// GUI server as a Docker container and streaming its logs until
// interrupted.
package serve

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/spf13/pflag"

	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/home"
)

const (
	// appImage is the GUI server image. Override with --image for
	// development builds.
	appImage = "ghcr.io/openhands/openhands-app:latest"

	// containerPort is where the app listens inside the container;
	// hostPort is where it is published on the loopback interface.
	containerPort = "3000/tcp"
	hostPort      = "3127"

	containerName = "openhands-app"
)

// Command returns the "serve" command.
func Command() *cli.Command {
	var mountCWD, gpu bool
	var imageRef string

	return &cli.Command{
		Name:    "serve",
		Summary: "Run the OpenHands GUI server in Docker",
		Description: `Launch the OpenHands GUI server as a Docker container.

Pulls the app image if absent, publishes the web UI on
http://localhost:` + hostPort + `, and mounts the Docker socket (the app
launches sandboxed runtime containers) plus the OpenHands state
directory. Runs in the foreground streaming container logs; Ctrl-C
stops and removes the container.`,
		Usage: "openhands serve [--mount-cwd] [--gpu]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.BoolVar(&mountCWD, "mount-cwd", false, "mount the current directory into the container workspace")
			flagSet.BoolVar(&gpu, "gpu", false, "request all GPUs for the container")
			flagSet.StringVar(&imageRef, "image", appImage, "app image to run")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return &cli.UsageError{Message: "serve takes no arguments"}
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, imageRef, mountCWD, gpu)
		},
	}
}

func run(ctx context.Context, imageRef string, mountCWD, gpu bool) error {
	docker, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("creating Docker client: %w", err)
	}
	defer docker.Close()

	if err := ensureImage(ctx, docker, imageRef); err != nil {
		return err
	}

	containerID, err := createContainer(ctx, docker, imageRef, mountCWD, gpu)
	if err != nil {
		return err
	}

	if err := docker.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		removeContainer(docker, containerID)
		return fmt.Errorf("starting container: %w", err)
	}
	fmt.Printf("OpenHands is running at http://localhost:%s (Ctrl-C to stop)\n", hostPort)

	err = streamLogs(ctx, docker, containerID)

	// Teardown under a fresh context; the signal context is already
	// cancelled when the operator hit Ctrl-C.
	stopCtx := context.Background()
	timeout := 10
	if stopErr := docker.ContainerStop(stopCtx, containerID, container.StopOptions{Timeout: &timeout}); stopErr != nil {
		fmt.Fprintf(os.Stderr, "stopping container: %v\n", stopErr)
	}
	removeContainer(docker, containerID)

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// ensureImage pulls the image when it is not present locally.
func ensureImage(ctx context.Context, docker *client.Client, imageRef string) error {
	if _, err := docker.ImageInspect(ctx, imageRef); err == nil {
		return nil
	}

	fmt.Printf("pulling %s…\n", imageRef)
	reader, err := docker.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", imageRef, err)
	}
	defer reader.Close()

	// The pull stream must be drained for the pull to complete. The
	// raw progress JSON is noise; discard it.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("reading pull progress: %w", err)
	}
	return nil
}

func createContainer(ctx context.Context, docker *client.Client, imageRef string, mountCWD, gpu bool) (string, error) {
	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: "/var/run/docker.sock",
			Target: "/var/run/docker.sock",
		},
		{
			Type:   mount.TypeBind,
			Source: home.Root(),
			Target: "/root/.openhands",
		},
	}
	if mountCWD {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: home.WorkDir(),
			Target: "/workspace",
		})
	}

	// The state dir must exist before Docker can bind-mount it.
	if err := os.MkdirAll(home.Root(), 0o755); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}

	hostConfig := &container.HostConfig{
		Mounts: mounts,
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: hostPort}},
		},
		AutoRemove: false,
	}
	if gpu {
		hostConfig.DeviceRequests = []container.DeviceRequest{
			{Count: -1, Capabilities: [][]string{{"gpu"}}},
		}
	}

	config := &container.Config{
		Image: imageRef,
		ExposedPorts: nat.PortSet{
			containerPort: struct{}{},
		},
		Labels: map[string]string{
			"dev.openhands.managed-by": "openhands-cli",
		},
	}

	created, err := docker.ContainerCreate(ctx, config, hostConfig, nil, nil, containerName)
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	return created.ID, nil
}

// streamLogs follows the container's output until the context is
// cancelled or the container exits.
func streamLogs(ctx context.Context, docker *client.Client, containerID string) error {
	logs, err := docker.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return fmt.Errorf("attaching to container logs: %w", err)
	}
	defer logs.Close()

	// Containers without a TTY multiplex stdout and stderr into one
	// stream; StdCopy splits them back out.
	_, err = stdcopy.StdCopy(os.Stdout, os.Stderr, logs)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("streaming container logs: %w", err)
	}
	return nil
}

func removeContainer(docker *client.Client, containerID string) {
	if err := docker.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
		fmt.Fprintf(os.Stderr, "removing container: %v\n", err)
	}
}
