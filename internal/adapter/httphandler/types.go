package httphandler

type (
	Product struct {
		ProductID          int64       `json:"productID"`
		Barcode            string      `json:"barcode"`
		ProductName        string      `json:"productName"`
		ProductDescription string      `json:"productDescription"`
		ProductImage       string      `json:"productImage"`
		PackagingType      string      `json:"packagingType"`
		Materials          []*Material `json:"materials"`
		IsRecyclable       bool        `json:"isRecyclable"`
		ProductScore       int         `json:"productScore"`
		Price              *float64    `json:"price,omitempty"`
		Recommendations    []Product   `json:"recommendations"`
	}

	Material struct {
		Code        int      `json:"code"`
		Type        string   `json:"type"`
		Examples    []string `json:"examples"`
		Description string   `json:"description"`
	}
)
