package domain

// Role is a typed capability checked at the service boundary.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleRestaurant Role = "RESTAURANT"
	RoleBiker      Role = "BIKER"
	RoleOperator   Role = "OPERATOR"
)

// OrderStatus is the canonical order lifecycle state.
type OrderStatus string

const (
	OrderPlaced         OrderStatus = "PLACED"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderPreparing      OrderStatus = "PREPARING"
	OrderReady          OrderStatus = "READY"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderPickedUp       OrderStatus = "PICKED_UP"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition may leave this status.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// orderTransitions is the only source of legal lifecycle moves. CANCELLED is
// reachable from every non-terminal state via CancelOrder, not listed here.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPlaced:         {OrderConfirmed},
	OrderConfirmed:      {OrderPreparing},
	OrderPreparing:      {OrderReady},
	OrderReady:          {OrderOutForDelivery, OrderPickedUp},
	OrderOutForDelivery: {OrderDelivered},
	OrderPickedUp:       {OrderDelivered},
}

// CanTransition reports whether from -> to is a legal forward move.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment axis on an order, orthogonal to OrderStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// TxStatus is the provider-side state of a gateway transaction.
type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxSuccess   TxStatus = "SUCCESS"
	TxFailed    TxStatus = "FAILED"
	TxCancelled TxStatus = "CANCELLED"
)

// Terminal reports whether the transaction may never be re-opened.
func (s TxStatus) Terminal() bool {
	return s == TxSuccess || s == TxFailed || s == TxCancelled
}

// TxType distinguishes money direction on a payment transaction.
type TxType string

const (
	TxCollection TxType = "COLLECTION"
	TxRefund     TxType = "REFUND"
)

// Gateway identifies a mobile-money provider.
type Gateway string

const (
	GatewayMomo             Gateway = "MTN_MOMO"
	GatewayAirtel           Gateway = "AIRTEL_MONEY"
	GatewayMomoDisbursement Gateway = "MTN_MOMO_DISBURSEMENT"
)

// Ledger event directions.
const (
	EventRequest  = "REQUEST"
	EventCallback = "CALLBACK"
)

// Actors recorded on state changes that are not user-initiated.
const (
	ActorReconciler = "system:reconciler"
	ActorSweep      = "system:sweep"
)

const Currency = "RWF"
