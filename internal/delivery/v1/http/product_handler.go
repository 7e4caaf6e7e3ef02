package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// fail пишет ответ с ошибкой. Серверные ошибки логируются целиком, клиентские — коротко.
func (p *ProductHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		p.logger.Errorf(err, "%s %s: %d", r.Method, r.URL.Path, code)
	} else {
		p.logger.Warnf("%s %s: %d %s", r.Method, r.URL.Path, code, err.Error())
	}

	WriteError(w, err)
}

// createProduct
//
//	@Summary		Создание продукта
//	@Description	Добавляет продукт в каталог. Код продукта уникален
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		ProductRequest	true	"Данные продукта"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		409		{object}	ErrorResponse	"Код уже занят"
//	@Failure		503		{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/api/v1/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body ProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.fail(w, r, err)
		return
	}

	price, err := parsePrice(body.Price)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), usecase.NewCreateProductReq(
		strings.TrimSpace(body.Name), strings.TrimSpace(body.Code), strings.TrimSpace(body.Category), price, body.Stock,
	))
	if err != nil {
		p.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newProductResponse(product))
}

// getProducts
//
//	@Summary		Список продуктов
//	@Description	Без параметров возвращает весь каталог. С параметром ids возвращает найденные продукты и список ненайденных
//	@Tags			products
//	@Produce		json
//	@Param			ids	query		string	false	"Идентификаторы через запятую"
//	@Success		200	{array}		ProductResponse
//	@Success		200	{object}	ProductsResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/v1/products [get]
func (p *ProductHandler) getProducts(w http.ResponseWriter, r *http.Request) {
	if raw, ok := r.URL.Query()["ids"]; ok {
		ids, err := parseIDs(strings.Join(raw, ","))
		if err != nil {
			p.fail(w, r, err)
			return
		}

		res, err := p.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq(ids))
		if err != nil {
			p.fail(w, r, err)
			return
		}

		notFound := res.NotFoundProducts
		if notFound == nil {
			notFound = []int64{}
		}

		WriteSuccess(w, http.StatusOK, ProductsResponse{
			Products: newArrProductInfoResponse(res.Products),
			NotFound: notFound,
		})
		return
	}

	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newArrProductInfoResponse(products))
}

// getLowStock
//
//	@Summary		Продукты с низким остатком
//	@Description	Возвращает продукты, у которых остаток строго меньше порога. Без параметра берётся порог из конфигурации
//	@Tags			products
//	@Produce		json
//	@Param			threshold	query		int	false	"Порог остатка"
//	@Success		200			{array}		ProductResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/v1/products/low-stock [get]
func (p *ProductHandler) getLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseInt64Query(r, "threshold", e.ErrInvalidThreshold)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	products, err := p.productUsecase.ListLowStock(r.Context(), threshold)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newArrProductInfoResponse(products))
}

// getProduct
//
//	@Summary	Продукт по идентификатору
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"Идентификатор продукта"
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductInfoResponse(*product))
}

// existsProduct
//
//	@Summary		Проверка существования продукта
//	@Description	Возвращает 1, если продукт есть, и 0, если нет
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int	true	"Идентификатор продукта"
//	@Success		200	{integer}	int
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/v1/products/exists/{id} [get]
func (p *ProductHandler) existsProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	exists, err := p.productUsecase.ExistsProduct(r.Context(), id)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	res := 0
	if exists {
		res = 1
	}

	WriteSuccess(w, http.StatusOK, res)
}

// updateProduct
//
//	@Summary		Изменение продукта
//	@Description	Доступно только администраторам. Роль запрашивается у сервиса пользователей по заголовку X-User-Id
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int				true	"Идентификатор продукта"
//	@Param			X-User-Id	header		int				true	"Идентификатор пользователя"
//	@Param			product		body		ProductRequest	true	"Новые данные продукта"
//	@Success		200			{object}	ProductResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse	"Нет прав администратора"
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/api/v1/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	userID, err := parseUserID(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	var body ProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.fail(w, r, err)
		return
	}

	price, err := parsePrice(body.Price)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), usecase.NewUpdateProductReq(
		id, userID, strings.TrimSpace(body.Name), strings.TrimSpace(body.Code), strings.TrimSpace(body.Category), price, body.Stock,
	))
	if err != nil {
		p.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}

// deleteProduct
//
//	@Summary	Удаление продукта
//	@Tags		products
//	@Param		id	path	int	true	"Идентификатор продукта"
//	@Success	204
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordMovement
//
//	@Summary		Движение остатка
//	@Description	Применяет знаковое изменение остатка ровно один раз для ключа category-code-price.
//	@Description	Повтор с тем же ключом возвращает 200 и applied=false, остаток не меняется
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int				true	"Идентификатор продукта"
//	@Param			quantity	query		int				true	"Знаковое изменение остатка"
//	@Param			movement	body		MovementRequest	true	"Поля ключа идемпотентности"
//	@Success		201			{object}	MovementResponse	"Движение применено"
//	@Success		200			{object}	MovementResponse	"Движение уже было применено"
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse	"Недостаточно остатка"
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/v1/products/{id}/inventory/movements [post]
func (p *ProductHandler) recordMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	quantity, err := parseInt64Query(r, "quantity", e.ErrInvalidQuantity)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	if quantity == nil {
		p.fail(w, r, e.ErrInvalidQuantity)
		return
	}

	var body MovementRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.fail(w, r, err)
		return
	}

	res, err := p.productUsecase.RecordMovement(r.Context(), usecase.NewRecordMovementReq(
		id, *quantity, body.Category, body.Code, strings.TrimSpace(body.Price.String()),
	))
	if err != nil {
		p.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Status == usecase.MovementAlreadyApplied {
		status = http.StatusOK
	}

	WriteSuccess(w, status, newMovementResponse(res))
}
