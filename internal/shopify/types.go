package shopify

const FulfillmentStatusFulfilled = "FULFILLED"

type PaymentTermsType string

const (
	PaymentTermsReceipt     PaymentTermsType = "RECEIPT"
	PaymentTermsNet         PaymentTermsType = "NET"
	PaymentTermsFixed       PaymentTermsType = "FIXED"
	PaymentTermsFulfillment PaymentTermsType = "FULFILLMENT"
	PaymentTermsUnknown     PaymentTermsType = "UNKNOWN"
)

type Order struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	Tags                     []string      `json:"tags"`
	DisplayFulfillmentStatus string        `json:"displayFulfillmentStatus"`
	PaymentTerms             *PaymentTerms `json:"paymentTerms"`
}

type PaymentTerms struct {
	ID               string           `json:"id"`
	PaymentTermsName string           `json:"paymentTermsName"`
	PaymentTermsType PaymentTermsType `json:"paymentTermsType"`
	DueInDays        *int             `json:"dueInDays"`
	Overdue          bool             `json:"overdue"`
	PaymentSchedules struct {
		Nodes []PaymentSchedule `json:"nodes"`
	} `json:"paymentSchedules"`
}

// Schedules returns the schedules in API order; safe on nil terms.
func (t *PaymentTerms) Schedules() []PaymentSchedule {
	if t == nil {
		return nil
	}
	return t.PaymentSchedules.Nodes
}

type PaymentSchedule struct {
	ID          string  `json:"id"`
	IssuedAt    *string `json:"issuedAt"`
	DueAt       *string `json:"dueAt"`
	CompletedAt *string `json:"completedAt"`
}

type DraftOrder struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Note               *string       `json:"note"`
	TotalShippingPrice string        `json:"totalShippingPrice"`
	ShippingLine       *ShippingLine `json:"shippingLine"`
}

type ShippingLine struct {
	Title  string  `json:"title"`
	Custom bool    `json:"custom"`
	Code   *string `json:"code"`
}

type ShippingLineInput struct {
	Price string `json:"price"`
	Title string `json:"title"`
}

// UserError is a field-level error reported inside a mutation payload.
type UserError struct {
	Code    string   `json:"code,omitempty"`
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type WebhookSubscription struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	CreatedAt string          `json:"createdAt"`
	Endpoint  WebhookEndpoint `json:"endpoint"`
}

// WebhookEndpoint flattens the endpoint union; only Pub/Sub endpoints carry project and topic.
type WebhookEndpoint struct {
	Typename      string `json:"__typename"`
	PubSubProject string `json:"pubSubProject,omitempty"`
	PubSubTopic   string `json:"pubSubTopic,omitempty"`
}

type PubSubEndpoint struct {
	Project string `json:"pubSubProject"`
	Topic   string `json:"pubSubTopic"`
}

type Shop struct {
	Name            string `json:"name"`
	MyshopifyDomain string `json:"myshopifyDomain"`
}
