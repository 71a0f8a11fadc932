// Package service talks to the remote processing service: it submits queries,
// polls task status and downloads finished output.
//
// Submissions are form-encoded POSTs carrying two fields, `query` (the
// serialized graph) and `preview`. The service decides whether a request is
// answered inline (a preview image) or as an asynchronous task (`{"taskId"}`);
// the echoed `preview` parameter, not the payload shape, says which.
//
// Failed requests come back as *RequestError. The service reports failures as
// Java exception traces; ExtractErrorMessage digs the human-readable part out.
package service
