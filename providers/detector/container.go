// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package detector

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/try"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	cgroupV1Path      = "proc/self/cgroup"
	cgroupV2Path      = "proc/self/mountinfo"
	containerIDLength = 64
)

// ContainerDetector detects container.id from the cgroup files of the
// current process. The cgroup v1 file is tried first since it still exists
// under cgroup v2 but no longer carries the id.
type ContainerDetector struct {
	fsys fs.FS
}

// NewContainerDetector returns a ContainerDetector which reads the proc
// filesystem from fsys, rooted at "/".
func NewContainerDetector(fsys fs.FS) *ContainerDetector {
	return &ContainerDetector{fsys: fsys}
}

// Detect implements the [resource.Detector] interface. Outside of a
// container an empty resource is returned.
func (d *ContainerDetector) Detect(ctx context.Context) (*resource.Resource, error) {
	id, err := d.containerID()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return resource.Empty(), nil
	}
	return resource.NewSchemaless(semconv.ContainerID(id)), nil
}

func (d *ContainerDetector) containerID() (string, error) {
	id, err := readLines(d.fsys, cgroupV1Path, containerIDFromCgroup)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id, err = readLines(d.fsys, cgroupV2Path, containerIDFromMountinfo)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return id, err
}

func readLines(fsys fs.FS, name string, f func(line string) (string, bool)) (id string, err error) {
	file, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer try.Close(&err, file)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if id, ok := f(line); ok {
			return id, nil
		}
	}
	return "", scanner.Err()
}

// containerIDFromCgroup takes the last path segment of a cgroup v1 line.
// With the systemd cgroup driver the id follows the last colon, otherwise
// it sits between the last '-' and the last '.', e.g.
// "docker-<id>.scope".
func containerIDFromCgroup(line string) (string, bool) {
	i := strings.LastIndexByte(line, '/')
	if i == -1 {
		return "", false
	}
	section := line[i+1:]

	if j := strings.LastIndexByte(section, ':'); j != -1 {
		return section[j+1:], true
	}

	start := strings.LastIndexByte(section, '-') + 1
	end := strings.LastIndexByte(section, '.')
	if end == -1 {
		end = len(section)
	}
	if start > end {
		return "", false
	}
	return section[start:end], true
}

// containerIDFromMountinfo finds the 64 character path segment of the
// mount which backs /etc/hostname.
func containerIDFromMountinfo(line string) (string, bool) {
	if !strings.Contains(line, "hostname") {
		return "", false
	}
	for _, segment := range strings.Split(line, "/") {
		if len(segment) == containerIDLength {
			return segment, true
		}
	}
	return "", true
}

// Container registers a [ContainerDetector] reading the host's root filesystem.
func Container() component.Provider {
	return component.NewProvider(
		component.CategoryResourceDetector,
		"container",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (resource.Detector, error) {
			return NewContainerDetector(os.DirFS("/")), nil
		},
	)
}
