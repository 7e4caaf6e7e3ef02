package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/product-catalog/internal/domain"
	"github.com/DRSN-tech/product-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, code, category, price::text, stock, created_at, updated_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
// Внутри транзакции запросы выполняются в ней, иначе напрямую через пул.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (name, code, category, price, stock)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING ` + productColumns

	row := tr.FromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.Name, model.Code, model.Category, model.Price, model.Stock,
	)

	created, err := p.scanOne(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductCodeExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := p.scanOne(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// GetByIDForUpdate читает продукт с блокировкой строки до конца транзакции.
func (p *ProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := p.scanOne(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []int64) ([]usecase.ProductInfo, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	products, err := p.queryMany(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return usecase.NewArrProductInfo(products), nil
}

func (p *ProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`

	products, err := p.queryMany(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// ListLowStock возвращает продукты с остатком строго ниже порога.
func (p *ProductRepo) ListLowStock(ctx context.Context, threshold int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE stock < $1 ORDER BY stock, id`

	products, err := p.queryMany(ctx, query, threshold)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET name = $2, code = $3, category = $4, price = $5::numeric, stock = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tr.FromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.Name, model.Code, model.Category, model.Price, model.Stock,
	)

	updated, err := p.scanOne(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductCodeExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return updated, nil
}

func (p *ProductRepo) UpdateStock(ctx context.Context, id int64, stock int64) error {
	query := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tr.FromCtx(ctx, p.pool).Exec(ctx, query, id, stock)
	if err != nil {
		if postgresCheckViolation(err) {
			return e.Wrap(whereami.WhereAmI(), e.ErrInsufficientStock)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.FromCtx(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := tr.FromCtx(ctx, p.pool).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (p *ProductRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := tr.FromCtx(ctx, p.pool).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE code = $1)`, code).
		Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (p *ProductRepo) scanOne(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	if err := row.Scan(
		&model.ID, &model.Name, &model.Code, &model.Category,
		&model.Price, &model.Stock, &model.CreatedAt, &model.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, err
	}

	return p.conv.ToEntity(&model)
}

func (p *ProductRepo) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := tr.FromCtx(ctx, p.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	models := make([]*converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Code, &model.Category,
			&model.Price, &model.Stock, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, err
		}
		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p.conv.ToArrEntity(models)
}
