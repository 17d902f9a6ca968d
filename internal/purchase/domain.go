// Package purchase records point-of-sale purchases: a transaction header and its
// numbered detail lines, written as one unit.
package purchase

import "time"

// UnassignedEmployee is recorded when a purchase arrives without an employee code.
const UnassignedEmployee = "9999999999"

// Header carries the who and where of a purchase.
type Header struct {
	EmployeeCode string
	StoreCode    string
	RegisterID   string
}

// Item is one scanned product as captured by the register. Code, Name and Price are a
// snapshot and are stored as given.
type Item struct {
	ProductID int64
	Code      string
	Name      string
	Price     int64
}

// Detail is a persisted transaction line. (TransactionID, LineNo) identifies it.
type Detail struct {
	TransactionID int64  `json:"transactionId"`
	LineNo        int    `json:"lineNo"`
	ProductID     int64  `json:"productId"`
	ProductCode   string `json:"productCode"`
	ProductName   string `json:"productName"`
	ProductPrice  int64  `json:"productPrice"`
}

// Transaction is a committed purchase with its lines ordered by LineNo.
type Transaction struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	EmployeeCode string    `json:"employeeCode"`
	StoreCode    string    `json:"storeCode"`
	RegisterID   string    `json:"registerId"`
	TotalAmount  int64     `json:"totalAmount"`
	Details      []Detail  `json:"details"`
}

// Receipt is what a successful Record call hands back.
type Receipt struct {
	TransactionID int64
	TotalAmount   int64
	ItemCount     int
	StoreCode     string
	RegisterID    string
	CreatedAt     time.Time
}
