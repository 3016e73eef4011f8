// Package logger expone un logger Zap único con scoping por contexto.
//
// Inicialización (una vez, en el comando serve):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En services y controllers:
//
//	log := logger.From(ctx).With(logger.Component("cmis.connector"), logger.Op("Authenticate"))
//	log.Info("code exchanged", logger.Provider(id), logger.CodePrefix(code))
//
// Los códigos de autenticación nunca se loguean completos; usar CodePrefix.
package logger
