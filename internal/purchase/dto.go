package purchase

// PurchaseRequest is the body of POST /api/purchase.
type PurchaseRequest struct {
	EmployeeCode string         `json:"employeeCode" validate:"max=10"`
	StoreCode    string         `json:"storeCode" validate:"required,max=5"`
	RegisterID   string         `json:"registerId" validate:"required,max=3"`
	Items        []PurchaseItem `json:"items" validate:"dive"`
}

// PurchaseItem is one line of a purchase request.
type PurchaseItem struct {
	ProductID int64  `json:"productId" validate:"gt=0"`
	Code      string `json:"code" validate:"required,max=13"`
	Name      string `json:"name" validate:"max=50"`
	Price     int64  `json:"price" validate:"gte=0"`
}

// PurchaseResult is the response of POST /api/purchase.
type PurchaseResult struct {
	Success       bool   `json:"success"`
	TotalAmount   int64  `json:"totalAmount"`
	TransactionID int64  `json:"transactionId"`
	Message       string `json:"message"`
}

func (r PurchaseRequest) header() Header {
	return Header{EmployeeCode: r.EmployeeCode, StoreCode: r.StoreCode, RegisterID: r.RegisterID}
}

func (r PurchaseRequest) items() []Item {
	items := make([]Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = Item{ProductID: it.ProductID, Code: it.Code, Name: it.Name, Price: it.Price}
	}
	return items
}
