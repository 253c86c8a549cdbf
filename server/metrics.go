package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serverMetrics struct {
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	registrations *prometheus.CounterVec
	resets        *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mock_backend_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mock_backend_refreshes_total",
			Help: "Refresh attempts by result.",
		}, []string{"result"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mock_backend_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mock_backend_password_resets_total",
			Help: "Password reset attempts by result.",
		}, []string{"result"}),
	}
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
