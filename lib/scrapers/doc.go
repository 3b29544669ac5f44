package scrapers

// the portal clients under this directory are read-only scrapers: each
// method's output depends only on its input, with the login session as an
// implied input.
//
// each method follows the same structure:
// 1. transform input into an HTTP request (method, headers, form/query)
// 2. make the request
// 3. assert response validity (status, expected body shape)
// 4. transform the response body (json or goquery selectors) into output
//    structs
//
// the clients stop there. caching, throttling, season math and name
// resolution live in the services that consume them, so a scraper bug
// can be reproduced with nothing but the raw portal response.
