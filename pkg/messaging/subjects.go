package messaging

const (
	// StockReducedSubject carries notifications about successful stock deductions.
	StockReducedSubject = "product.stock.reduced"
	// StockRollbackSubject carries compensation requests that restore previously
	// deducted stock. The payload is plain text: "<product-id>,<quantity>".
	StockRollbackSubject = "product.stock.rollback"
)
