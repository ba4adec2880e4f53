package service

import (
	"context"

	"cajapos/internal/domainerr"
	"cajapos/internal/dto"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
)

// ProductoService is the thin catalog layer the ledgers lean on: price
// resolution for quotes and the stock counter sales and exchanges mutate.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context) ([]dto.ProductoResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
}

func NewProductoService(repo repository.ProductoRepository) ProductoService {
	return &productoService{repo: repo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if !req.PrecioVenta.IsPositive() {
		return nil, domainerr.Validation("el precio de venta debe ser mayor a cero")
	}
	producto := &model.Producto{
		Nombre:       req.Nombre,
		CodigoBarras: req.CodigoBarras,
		PrecioVenta:  req.PrecioVenta,
		Stock:        req.Stock,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, producto); err != nil {
		return nil, domainerr.Conflict("no se pudo crear el producto %s", req.Nombre)
	}
	return productoToResponse(producto), nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	producto, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "producto no encontrado")
	}
	if req.Nombre != "" {
		producto.Nombre = req.Nombre
	}
	if req.CodigoBarras != nil {
		producto.CodigoBarras = req.CodigoBarras
	}
	if req.PrecioVenta != nil {
		if !req.PrecioVenta.IsPositive() {
			return nil, domainerr.Validation("el precio de venta debe ser mayor a cero")
		}
		producto.PrecioVenta = *req.PrecioVenta
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, domainerr.Validation("el stock no puede ser negativo")
		}
		producto.Stock = *req.Stock
	}
	if req.Activo != nil {
		producto.Activo = *req.Activo
	}
	if err := s.repo.Update(ctx, producto); err != nil {
		return nil, domainerr.FromDB(err, "producto no encontrado")
	}
	return productoToResponse(producto), nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	producto, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domainerr.FromDB(err, "producto no encontrado")
	}
	return productoToResponse(producto), nil
}

func (s *productoService) Listar(ctx context.Context) ([]dto.ProductoResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	productos, err := s.repo.List(ctx)
	if err != nil {
		return nil, domainerr.FromDB(err, "productos no disponibles")
	}
	out := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		out = append(out, *productoToResponse(&productos[i]))
	}
	return out, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		CodigoBarras: p.CodigoBarras,
		PrecioVenta:  p.PrecioVenta,
		Stock:        p.Stock,
		Activo:       p.Activo,
	}
}
