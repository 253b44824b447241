package main

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
)
