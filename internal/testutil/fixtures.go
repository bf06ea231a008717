package testutil

import "github.com/roach88/sieve/internal/ir"

// CustomerSchemas returns the Customer/Order declarations used across tests.
//
//	Customer{firstName, lastName, gold, orders: to_many Order, phoneNumbers: element_collection<string>}
//	Order{item, quantity, customer: to_one Customer, tags: element_collection<string>}
//
// Mapping defaults are left to graph.New.
func CustomerSchemas() []ir.EntitySchema {
	return []ir.EntitySchema{
		{
			Name: "Customer",
			Attributes: []ir.AttributeSchema{
				{Name: "firstName", Kind: ir.KindScalar, Type: ir.TypeString},
				{Name: "lastName", Kind: ir.KindScalar, Type: ir.TypeString},
				{Name: "gold", Kind: ir.KindScalar, Type: ir.TypeBool},
				{Name: "orders", Kind: ir.KindToMany, Target: "Order"},
				{Name: "phoneNumbers", Kind: ir.KindElementCollection, Type: ir.TypeString},
			},
		},
		{
			Name: "Order",
			Attributes: []ir.AttributeSchema{
				{Name: "item", Kind: ir.KindScalar, Type: ir.TypeString},
				{Name: "quantity", Kind: ir.KindScalar, Type: ir.TypeInt},
				{Name: "customer", Kind: ir.KindToOne, Target: "Customer"},
				{Name: "tags", Kind: ir.KindElementCollection, Type: ir.TypeString},
			},
		},
	}
}

// CustomersYAML is a seed dataset for CustomerSchemas.
//
// Customers 1-8 are the Simpsons household and neighbours; 9 (Barry) has a
// phone number and no orders, 10 (Vanessa) has an order and no phone number.
// Customers with orders: Homer, Bart, Moe, Ned, Vanessa.
const CustomersYAML = `
- entity: Customer
  rows:
    - {id: 1, firstName: Homer, lastName: Simpson, gold: true}
    - {id: 2, firstName: Marge, lastName: Simpson, gold: true}
    - {id: 3, firstName: Bart, lastName: Simpson, gold: false}
    - {id: 4, firstName: Lisa, lastName: Simpson, gold: false}
    - {id: 5, firstName: Maggie, lastName: Simpson, gold: false}
    - {id: 6, firstName: Moe, lastName: Szyslak, gold: false}
    - {id: 7, firstName: Minnie, lastName: Szyslak, gold: false}
    - {id: 8, firstName: Ned, lastName: Flanders, gold: true}
    - {id: 9, firstName: Barry, lastName: Benson, gold: false, phoneNumbers: ["123456789"]}
    - {id: 10, firstName: Vanessa, lastName: Bloom, gold: false}
- entity: Order
  rows:
    - {id: 1, item: Duff Beer, quantity: 6, customer: 1, tags: [drinks]}
    - {id: 2, item: Donuts, quantity: 12, customer: 1}
    - {id: 3, item: Skateboard, quantity: 1, customer: 3, tags: [toys, outdoor]}
    - {id: 4, item: Flaming Moe, quantity: 2, customer: 6, tags: [drinks]}
    - {id: 5, item: Bible, quantity: 1, customer: 8}
    - {id: 6, item: flowers, quantity: 3, customer: 10}
`

// Customer IDs grouped by the properties the fixture guarantees.
var (
	AllCustomerIDs         = []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	CustomersWithOrders    = []int64{1, 3, 6, 8, 10}
	CustomersWithoutOrders = []int64{2, 4, 5, 7, 9}
	CustomersWithPhones    = []int64{9}
	CustomersWithoutPhones = []int64{1, 2, 3, 4, 5, 6, 7, 8, 10}
	OrdersWithTags         = []int64{1, 3, 4}
)
