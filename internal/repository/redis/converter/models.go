package converter

// ProductInfoRedisModel — представление продукта в кэше. Цена хранится строкой, чтобы не терять точность.
type ProductInfoRedisModel struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Stock    int64  `json:"stock"`
}
