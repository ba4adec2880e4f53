package router

import (
	"time"

	"cajapos/internal/config"
	"cajapos/internal/handler"
	"cajapos/internal/lock"
	"cajapos/internal/middleware"
	"cajapos/internal/repository"
	"cajapos/internal/service"
	"cajapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// Per-operation timeout for service-layer calls
	service.SetOpTimeout(time.Duration(cfg.OpTimeoutSecs) * time.Second)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	creditoRepo := repository.NewCreditoRepository(db)
	recambioRepo := repository.NewRecambioRepository(db)
	configRepo := repository.NewConfiguracionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into the caja service to enqueue close reports
	dispatcher := worker.NewDispatcher(rdb)

	// Per-aggregate write locks. Lock ordering is caja before cliente.
	cajaLocks := lock.NewKeyedMutex()
	clienteLocks := lock.NewKeyedMutex()

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo)
	cajaSvc := service.NewCajaService(cajaRepo, configRepo, cajaLocks, dispatcher)
	creditoSvc := service.NewCreditoService(creditoRepo, clienteRepo, cajaSvc, clienteLocks)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, cajaSvc, creditoSvc)
	recambioSvc := service.NewRecambioService(recambioRepo, ventaRepo, productoRepo, cajaSvc, creditoSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	clientesH := handler.NewClientesHandler(creditoSvc)
	creditosH := handler.NewCreditosHandler(creditoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	recambiosH := handler.NewRecambiosHandler(recambioSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		operadores := middleware.RequireRole("cajero", "supervisor", "administrador")
		supervision := middleware.RequireRole("supervisor", "administrador")

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", operadores, cajaH.Abrir)
			caja.POST("/cerrar", operadores, cajaH.Cerrar)
			caja.GET("/abierta", operadores, cajaH.Abierta)
			caja.POST("/movimiento", operadores, cajaH.Movimiento)
			caja.POST("/retiro", supervision, cajaH.Retiro)
			caja.GET("/:id/reporte", operadores, cajaH.Reporte)
			caja.GET("/historial", supervision, cajaH.Historial)
		}

		v1.POST("/ventas", operadores, ventasH.Registrar)
		v1.GET("/ventas", operadores, ventasH.Listar)
		v1.GET("/ventas/:id", operadores, ventasH.Obtener)
		v1.POST("/ventas/:id/anular", supervision, ventasH.Anular)

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", operadores, clientesH.Crear)
			clientes.GET("", operadores, clientesH.Listar)
			clientes.GET("/:id", operadores, clientesH.Obtener)
			clientes.PUT("/:id", supervision, clientesH.Actualizar)
			clientes.GET("/:id/creditos", operadores, clientesH.Creditos)
		}

		creditos := v1.Group("/creditos")
		{
			creditos.POST("", operadores, creditosH.Crear)
			creditos.GET("/:id", operadores, creditosH.Obtener)
			creditos.POST("/:id/pagos", operadores, creditosH.Pagar)
			creditos.DELETE("/:id", supervision, creditosH.Revertir)
		}

		recambios := v1.Group("/recambios")
		{
			recambios.POST("/cotizar", operadores, recambiosH.Cotizar)
			recambios.POST("", operadores, recambiosH.Confirmar)
			recambios.GET("", supervision, recambiosH.Listar)
			recambios.GET("/:id", operadores, recambiosH.Obtener)
		}

		// Catalog reads for every authenticated role, writes administrador only
		v1.GET("/productos", operadores, productosH.Listar)
		v1.GET("/productos/:id", operadores, productosH.Obtener)
		prods := v1.Group("/productos", middleware.RequireRole("administrador"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
