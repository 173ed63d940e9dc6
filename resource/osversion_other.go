//go:build !linux && !darwin

package resource

func osVersion() string { return placeholder }
