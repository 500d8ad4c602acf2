package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatguard_api_checks",
	Help: "Number of messages evaluated through the check API, by resulting action",
}, []string{"action"})

var janitorEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatguard_janitor_evictions",
	Help: "Number of expired state entries removed by the janitor",
}, []string{"store"})

var janitorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatguard_janitor_failures",
	Help: "Number of failed janitor sweeps",
}, []string{"store"})
