package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del flujo de conexión de drives. Viven en un paquete propio para
// evitar ciclos entre conectores, servicio y HTTP.

var (
	CodeExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clouddrive_code_exchanges_total",
		Help: "Presentaciones de códigos de acceso por paso y resultado",
	}, []string{"provider", "step", "result"}) // step: exchange|complete; result: ok|error

	PendingFlows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clouddrive_pending_auth_flows",
		Help: "Flujos de autenticación en dos pasos esperando el segundo paso",
	}, []string{"provider"})

	LoginCodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clouddrive_login_codes_total",
		Help: "Códigos de login emitidos, intercambiados o rechazados",
	}, []string{"event"}) // created|exchanged|rejected|context

	DrivesConnected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clouddrive_drives_connected_total",
		Help: "Drives conectados por proveedor",
	}, []string{"provider"})

	DrivesLoaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clouddrive_drives_loaded_total",
		Help: "Drives cargados desde el repositorio por proveedor y resultado",
	}, []string{"provider", "result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})
)

// Register registra todas las métricas en reg (o el default si es nil).
// Tolera métricas ya registradas.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		CodeExchanges, PendingFlows, LoginCodes, DrivesConnected, DrivesLoaded, HTTPRequests,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Result normaliza un error a la etiqueta result.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
