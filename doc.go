/*
go-shelfdetect detects products in a photo or live camera frame with a
pretrained detector model and groups the detections into the physical
shelves they sit on for visual overlay.

The pipeline center crops and scales each image to the fixed 3:4 input of
the model, runs inference through an Engine, decodes the fixed capacity
output tensors into a variable length list of boxes, maps those boxes into
the pixel space of a fit-center view and clusters them into shelves by the
vertical proximity of their top edges.

The Engine is an interface, a TensorFlow Lite implementation is provided in
the engine/tflite subdirectory.  See the cmd/shelfdetect command for usage
as a CLI, camera stream or HTTP service.
*/
package shelfdetect
