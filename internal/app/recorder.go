package app

import "time"

// ScanRecorder receives scan and delivery outcomes, typically for metrics.
type ScanRecorder interface {
	ScanSkipped()
	ScanFailed()
	ScanCompleted(d time.Duration)
	ParseError()
	NotificationSent(isTest bool)
	NotificationFailed(isTest bool)
}

// CommandRecorder receives the outcome of each dispatched command.
type CommandRecorder interface {
	CommandHandled(action, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ScanSkipped()                  {}
func (nopRecorder) ScanFailed()                   {}
func (nopRecorder) ScanCompleted(time.Duration)   {}
func (nopRecorder) ParseError()                   {}
func (nopRecorder) NotificationSent(bool)         {}
func (nopRecorder) NotificationFailed(bool)       {}
func (nopRecorder) CommandHandled(string, string) {}
