package main

// General API documentation for swaggo. The document served under /swagger/
// lives in the docs package.
//
// @title           modelhub API
// @version         1.0
// @description     Local control plane for downloading, loading and serving language models.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
