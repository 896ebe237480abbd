// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package tableapi translates json-server style REST calls into partition/row
key table operations.

A Translator serves one logical table. It accepts a Request (method, optional
id, partition key, query string and body) and returns a Response carrying a
status code, headers and an optional JSON-ready body.

	GET    /people?age_gte=21&name_like=an&_sort=age&_order=desc&_start=0&_end=10
	GET    /people/42
	POST   /people        {"name": "Ana", "age": 30}
	PATCH  /people/42     {"age": 31}
	DELETE /people/42

Query keys select store-side comparisons by suffix (none, _ne, _gte, _lte),
with the plain id key matching any of its values against the row key.
Keys ending in _like are case-insensitive substring filters applied after
the store read, followed by access narrowing, the total count
(x-total-count header), sorting and the _start/_end window.

Every operation goes through an AccessController. Without one, all access
is granted.

	t := tableapi.New("people", store,
		tableapi.WithTypeHints(tableapi.FieldHints{"age": tableapi.HintInteger}),
		tableapi.WithAccessController(controller),
	)
	resp, err := t.Handle(ctx, tableapi.Request{Method: "GET", Query: r.URL.Query()})
*/
package tableapi
