// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/compositor"
	"github.com/gogpu/xrlayer/layers"
	"github.com/gogpu/xrlayer/scenefile"
)

// session drives one scene through the registry and compositor, one frame
// per step.
type session struct {
	comp    *compositor.Compositor
	reg     *xrlayer.Registry
	tracker *scenefile.Tracker

	// yaw is the head rotation per frame in degrees.
	yaw float32

	mu      sync.Mutex
	scene   *scenefile.Scene
	loadErr error
	head    float32
}

func newSession(cfg compositor.Config, scene *scenefile.Scene, maxLayers int) (*session, error) {
	comp, err := compositor.New(cfg)
	if err != nil {
		return nil, err
	}
	reg := xrlayer.NewRegistry()
	opts := layers.Options{Origin: scene.OriginPose(), MaxLayers: maxLayers}
	if err := layers.RegisterBuiltins(reg, comp, opts); err != nil {
		_ = comp.Close()
		return nil, err
	}
	reg.Start()
	return &session{
		comp:    comp,
		reg:     reg,
		tracker: scenefile.NewTracker(),
		scene:   scene,
	}, nil
}

// reload replaces the scene used by the next step. A load error keeps the
// previous scene and is reported in the status line.
func (s *session) reload(scene *scenefile.Scene, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.loadErr = err
		xrlayer.Logger().Warn("xrlayers: reload failed", "error", err)
		return
	}
	s.scene, s.loadErr = scene, nil
	xrlayer.Logger().Info("xrlayers: scene reloaded", "layers", len(scene.Layers))
}

// step advances one frame: diff the scene, dispatch, wait for swapchain
// creation and end the frame.
func (s *session) step() (compositor.Frame, error) {
	s.mu.Lock()
	scene := s.scene
	s.head += s.yaw
	head := s.head
	s.mu.Unlock()

	s.comp.SetHeadPose(xrlayer.Pose{Rotation: xrlayer.AngleAxis(head, xrlayer.Up)})

	changes, err := s.tracker.Update(scene)
	if err != nil {
		return compositor.Frame{}, err
	}
	s.reg.Dispatch(changes)
	s.comp.Flush()
	return s.comp.EndFrame(), nil
}

// status is the monitor's status line after a step that returned err.
func (s *session) status(err error) string {
	s.mu.Lock()
	loadErr := s.loadErr
	s.mu.Unlock()
	switch {
	case err != nil:
		return err.Error()
	case loadErr != nil:
		return "reload: " + loadErr.Error()
	}
	return fmt.Sprintf("%d scene layers  %d swapchains", s.tracker.Len(), s.comp.Swapchains())
}

func (s *session) close() error {
	s.reg.Dispatch(s.tracker.Clear())
	return errors.Join(s.reg.Close(), s.comp.Close())
}
