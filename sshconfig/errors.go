package sshconfig

import "errors"

var (
	// ErrHomeDir indicates the user's home directory could not be determined.
	ErrHomeDir = errors.New("home directory not found")
	// ErrReadConfig indicates an existing SSH config could not be read.
	ErrReadConfig = errors.New("unable to read SSH config")
	// ErrCreateConfigDir indicates the directory for a new SSH config could not be created.
	ErrCreateConfigDir = errors.New("failed to create SSH config directory")
	// ErrWriteConfig indicates an SSH config could not be written.
	ErrWriteConfig = errors.New("unable to write SSH config")
)
