package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	RecommendationsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_recommendations_total",
		Help: "Total de recomendações de estações servidas",
	}, []string{"urgency", "cache"})

	TripPlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_trip_plans_total",
		Help: "Total de planos de viagem por estado final",
	}, []string{"status"})

	TripPlanStops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigec_route_trip_plan_stops",
		Help:    "Número de paradas de recarga por plano",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	})

	LowConfidencePlans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigec_route_low_confidence_plans_total",
		Help: "Planos entregues com baixa confiança",
	})

	ScoringLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigec_route_scoring_latency_seconds",
		Help:    "Latência do ranqueamento de estações",
		Buckets: prometheus.DefBuckets,
	})

	PlanningLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigec_route_planning_latency_seconds",
		Help:    "Latência do planejamento de viagem",
		Buckets: prometheus.DefBuckets,
	})

	// Métricas de catálogo
	CatalogStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigec_route_catalog_stations",
		Help: "Número de estações no snapshot atual",
	})

	CatalogVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigec_route_catalog_version",
		Help: "Versão do snapshot atual do catálogo",
	})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_catalog_reloads_total",
		Help: "Recargas do catálogo por resultado",
	}, []string{"source", "result"})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_status_updates_total",
		Help: "Atualizações de status de carregadores recebidas",
	}, []string{"result"})

	// Métricas de infraestrutura
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_cache_requests_total",
		Help: "Consultas ao cache de respostas",
	}, []string{"result"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigec_route_database_latency_seconds",
		Help:    "Latência de queries no banco",
		Buckets: prometheus.DefBuckets,
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigec_route_websocket_clients",
		Help: "Clientes conectados ao stream de status",
	})

	WebsocketDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigec_route_websocket_dropped_total",
		Help: "Mensagens descartadas por clientes lentos",
	})

	GRPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_route_grpc_requests_total",
		Help: "Chamadas gRPC por método e código",
	}, []string{"method", "code"})

	GRPCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sigec_route_grpc_latency_seconds",
		Help:    "Latência das chamadas gRPC",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
